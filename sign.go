package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/ferreirogomes/tijolo/handlers"
	"github.com/ferreirogomes/tijolo/services"

	"github.com/gagliardetto/solana-go"
	"github.com/google/subcommands"
)

type signCmd struct {
	key    string
	method string
	path   string
	body   string
	newKey bool
}

func (*signCmd) Name() string     { return "sign" }
func (*signCmd) Synopsis() string { return "gera os cabeçalhos de autenticação de uma requisição" }
func (*signCmd) Usage() string {
	return `tijolo sign -key <chave base58> -method POST -path /properties -body '{...}'
tijolo sign -new

  Imprime os cabeçalhos de autenticação (chamador, assinatura, instante e nonce).
  Cada saída vale para um único envio, dentro da janela de tempo do servidor.
  Com -new, gera um par de chaves.
`
}

func (c *signCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.key, "key", os.Getenv("TIJOLO_PRIVATE_KEY"), "Chave privada base58 (padrão: $TIJOLO_PRIVATE_KEY)")
	f.StringVar(&c.method, "method", "POST", "Método HTTP")
	f.StringVar(&c.path, "path", "", "Caminho da requisição, sem query string")
	f.StringVar(&c.body, "body", "", "Corpo exato que será enviado")
	f.BoolVar(&c.newKey, "new", false, "Gera um novo par de chaves")
}

func (c *signCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.newKey {
		w := solana.NewWallet()
		fmt.Printf("address: %s\nprivate_key: %s\n", w.PublicKey(), w.PrivateKey)
		return subcommands.ExitSuccess
	}
	if c.path == "" {
		fmt.Fprintln(os.Stderr, "Error: -path é obrigatório")
		return subcommands.ExitUsageError
	}
	key, err := solana.PrivateKeyFromBase58(c.key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: chave inválida: %v\n", err)
		return subcommands.ExitUsageError
	}
	rs, err := services.SignRequest(key, c.method, c.path, []byte(c.body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	h := http.Header{}
	handlers.SetSignatureHeaders(h, key.PublicKey(), rs)
	for _, name := range []string{handlers.HeaderCaller, handlers.HeaderSignature, handlers.HeaderTimestamp, handlers.HeaderNonce} {
		fmt.Printf("%s: %s\n", name, h.Get(name))
	}
	return subcommands.ExitSuccess
}

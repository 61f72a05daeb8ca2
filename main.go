package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "", "Arquivo de configuração YAML (opcional; variáveis TIJOLO_* têm precedência)")

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&serveCmd{}, "servidor")
	subcommands.Register(&migrateCmd{}, "servidor")
	subcommands.Register(&signCmd{}, "cliente")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

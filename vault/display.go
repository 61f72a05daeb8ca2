package vault

import (
	"math"
	"strconv"

	"github.com/Rhymond/go-money"
)

// Display formata uma quantia em unidades mínimas na moeda informada (ex.: "R$10,00").
// Códigos desconhecidos ou valores acima de int64 caem para o número cru.
func Display(units uint64, currency string) string {
	if units > math.MaxInt64 || money.GetCurrency(currency) == nil {
		return strconv.FormatUint(units, 10)
	}
	return money.New(int64(units), currency).Display()
}

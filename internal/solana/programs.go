package solana

import "strings"

// Known DEX program IDs.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// PumpFun is the pump.fun program ID.
	PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
)

// programAliases maps short names to program IDs.
var programAliases = map[string]string{
	"raydium": RaydiumAMMV4,
	"pumpfun": PumpFun,
}

// ResolveProgram turns a known alias into its program ID. Anything else is
// returned unchanged and left to ValidateAddress.
func ResolveProgram(aliasOrAddress string) string {
	if id, ok := programAliases[strings.ToLower(strings.TrimSpace(aliasOrAddress))]; ok {
		return id
	}
	return strings.TrimSpace(aliasOrAddress)
}

package internalcheck

import (
	"fmt"
	"go/token"
	"go/types"
	"strings"
	"testing"
)

// Nodes compute on ciphertexts but must not be able to read them.
func TestConsensusNeverDecrypts(t *testing.T) {
	pkgs := load(t, modulePath+"/pkg/hegossip/consensus")
	paillierPath := modulePath + "/pkg/hegossip/paillier"

	var findings []string
	for _, pkg := range pkgs {
		eachUse(pkg, func(pos token.Position, obj types.Object) {
			if obj.Pkg().Path() != paillierPath {
				return
			}
			switch obj.Name() {
			case "SecretKey", "Decrypt", "KeyGen", "KeyGenWithReader", "KeyGenFromPrimes", "KeyGenFromPrimesWithReader":
				findings = append(findings, fmt.Sprintf("%s: consensus must not use paillier.%s", pos, obj.Name()))
			}
		})
	}

	if len(findings) > 0 {
		t.Fatalf("key custody violation:\n%s", strings.Join(findings, "\n"))
	}
}

package internalcheck

import (
	"go/ast"
	"go/token"
	"go/types"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/hsiuhsiu/hegossip-go"

// corePackages never log, print or hold a logger.
var corePackages = []string{
	modulePath + "/pkg/hegossip",
	modulePath + "/pkg/hegossip/modular",
	modulePath + "/pkg/hegossip/paillier",
	modulePath + "/pkg/hegossip/quant",
	modulePath + "/pkg/hegossip/consensus",
}

func load(t *testing.T, patterns ...string) []*packages.Package {
	t.Helper()
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName | packages.NeedImports,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatalf("packages contain errors")
	}
	return pkgs
}

// eachUse calls fn for every identifier in pkg that refers to an object
// declared in another package.
func eachUse(pkg *packages.Package, fn func(pos token.Position, obj types.Object)) {
	for _, file := range pkg.Syntax {
		ast.Inspect(file, func(n ast.Node) bool {
			id, ok := n.(*ast.Ident)
			if !ok {
				return true
			}
			obj := pkg.TypesInfo.Uses[id]
			if obj == nil || obj.Pkg() == nil || obj.Pkg() == pkg.Types {
				return true
			}
			fn(pkg.Fset.Position(id.Pos()), obj)
			return true
		})
	}
}

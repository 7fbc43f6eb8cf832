// Package internalcheck holds static policy tests over the library packages.
//
// The tests load the packages with golang.org/x/tools/go/packages and walk
// their typed syntax trees. They check that grid nodes never touch the secret
// key, that the core never logs or prints, and that nothing formats values
// with %x. The package has no API.
package internalcheck

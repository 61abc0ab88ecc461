//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Test runs the full unit test suite.
func (Build) Test() error {
	fmt.Println("Running tests...")
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Vet runs go vet across the module.
func (Build) Vet() error {
	fmt.Println("Running go vet...")
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

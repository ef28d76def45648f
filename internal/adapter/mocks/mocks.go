// Package mocks provides testify mocks of the adapter interfaces.
package mocks

import "github.com/stretchr/testify/mock"

// testingT is what the NewMock constructors need from *testing.T.
type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func errorAt(ret mock.Arguments, i int) error {
	if ret.Get(i) == nil {
		return nil
	}

	return ret.Error(i)
}

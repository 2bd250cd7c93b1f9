package main

import (
	"context"
	"io"
	"os"
	"time"

	mdnice "github.com/alnah/go-mdnice"
)

// batchConverter is the part of the library the CLI drives.
type batchConverter interface {
	Convert(ctx context.Context, outputDir string, reqs ...mdnice.Request) (*mdnice.BatchOutcome, error)
	Warnings() []string
}

// Compile-time interface implementation check.
var _ batchConverter = (*mdnice.Converter)(nil)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now          func() time.Time
	Stdin        io.Reader
	Stdout       io.Writer
	Stderr       io.Writer
	NewConverter func(opts ...mdnice.Option) (batchConverter, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:          time.Now,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		NewConverter: newLibraryConverter,
	}
}

func newLibraryConverter(opts ...mdnice.Option) (batchConverter, error) {
	c, err := mdnice.NewConverter(opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

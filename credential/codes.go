package credential

import "github.com/MrEthical07/codeAuth/internal"

// CodeGenerator produces codes of an exact length.
type CodeGenerator interface {
	Generate(length int) (string, error)
}

// RandomCodes draws codes from internal.CodeAlphabet using crypto/rand.
type RandomCodes struct{}

func (RandomCodes) Generate(length int) (string, error) {
	return internal.NewCode(internal.CodeAlphabet, length)
}

// CodeGeneratorFunc adapts a function to CodeGenerator.
type CodeGeneratorFunc func(length int) (string, error)

func (f CodeGeneratorFunc) Generate(length int) (string, error) {
	return f(length)
}

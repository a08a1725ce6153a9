package nn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndGetActivation(t *testing.T) {
	resetActivationRegistryForTests()
	t.Cleanup(resetActivationRegistryForTests)

	require.NoError(t, RegisterActivation("quad", func(x float64) float64 { return x * x }))
	fn, err := GetActivation("quad")
	require.NoError(t, err)
	require.Equal(t, 9.0, fn(3))
}

func TestRegisterActivationValidation(t *testing.T) {
	resetActivationRegistryForTests()
	t.Cleanup(resetActivationRegistryForTests)

	require.Error(t, RegisterActivation("", func(x float64) float64 { return x }), "empty name")
	require.Error(t, RegisterActivation("nil", nil), "nil function")
	require.ErrorIs(t, RegisterActivation("sigmoid", Sigmoid), ErrActivationExists)
}

func TestListActivationsIncludesBuiltIns(t *testing.T) {
	names := ListActivations()
	for _, name := range []string{"relu", "sigmoid", "tanh"} {
		require.Contains(t, names, name)
	}
	_, err := GetActivation("missing")
	require.ErrorIs(t, err, ErrActivationNotFound)
}

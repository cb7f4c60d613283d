package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fkhayef/rewear/pkg/authz"
)

func TestGenerateAndValidate(t *testing.T) {
	signed, err := Generate(42, authz.RoleAdmin, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := Validate(signed, "secret")
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.MemberID)
	require.Equal(t, authz.RoleAdmin, claims.Role)
	require.Equal(t, "rewear", claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestValidateWrongSecret(t *testing.T) {
	signed, err := Generate(42, authz.RoleMember, "secret", time.Hour)
	require.NoError(t, err)

	_, err = Validate(signed, "other-secret")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateExpired(t *testing.T) {
	signed, err := Generate(42, authz.RoleMember, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = Validate(signed, "secret")
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateGarbage(t *testing.T) {
	_, err := Validate("not-a-token", "secret")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

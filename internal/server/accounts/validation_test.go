package accounts

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() RegisterInput {
	return RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret123"}
}

func TestRegisterInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RegisterInput)
		wantErr error
		wantMsg string
	}{
		{name: "valid", mutate: func(*RegisterInput) {}},
		{name: "six char password", mutate: func(in *RegisterInput) { in.Password = "abcdef" }},
		{name: "72 byte password", mutate: func(in *RegisterInput) { in.Password = strings.Repeat("p", 72) }},
		{name: "short password", mutate: func(in *RegisterInput) { in.Password = "abc" }, wantErr: common.ErrorPasswordTooShort},
		{name: "empty password", mutate: func(in *RegisterInput) { in.Password = "" }, wantErr: common.ErrorPasswordTooShort},
		{name: "long password", mutate: func(in *RegisterInput) { in.Password = strings.Repeat("p", 73) }, wantErr: common.ErrorPasswordTooLong},
		{name: "missing username", mutate: func(in *RegisterInput) { in.Username = "" }, wantErr: common.ErrorValidation, wantMsg: "username is required"},
		{name: "blank username", mutate: func(in *RegisterInput) { in.Username = "al ice" }, wantErr: common.ErrorValidation, wantMsg: "username must not contain whitespace"},
		{name: "long username", mutate: func(in *RegisterInput) { in.Username = strings.Repeat("u", 51) }, wantErr: common.ErrorValidation, wantMsg: "username must be at most 50"},
		{name: "bad email", mutate: func(in *RegisterInput) { in.Email = "not-an-email" }, wantErr: common.ErrorValidation, wantMsg: "email must be a valid email address"},
		{name: "missing email", mutate: func(in *RegisterInput) { in.Email = "" }, wantErr: common.ErrorValidation, wantMsg: "email is required"},
		{name: "long first name", mutate: func(in *RegisterInput) { in.FirstName = strings.Repeat("f", 51) }, wantErr: common.ErrorValidation, wantMsg: "first_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := in.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, common.ErrorValidation)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRegisterInput_ValidateReportsEverything(t *testing.T) {
	in := RegisterInput{Username: "alice", Email: "nope", Password: "abc"}

	err := in.Validate()
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
	assert.ErrorIs(t, err, common.ErrorPasswordTooShort)
	assert.Contains(t, err.Error(), "password must be at least 6 characters long")
	assert.Contains(t, err.Error(), "email must be a valid email address")
}

func TestRegisterInput_PasswordErrorOnlyWhenPasswordBad(t *testing.T) {
	in := validInput()
	in.Email = "bad"

	err := in.Validate()
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.NotErrorIs(t, err, common.ErrorPasswordTooShort)
	assert.NotErrorIs(t, err, common.ErrorPasswordTooLong)
}

func TestRegisterInput_Profile(t *testing.T) {
	in := RegisterInput{Username: "u", Email: "e@example.com", Password: "pw", FirstName: "F", LastName: "L"}
	assert.Equal(t, Profile{Username: "u", Email: "e@example.com", FirstName: "F", LastName: "L"}, in.Profile())
}

func TestNewValidator_IdentifierRule(t *testing.T) {
	var v *validator.Validate
	require.NotPanics(t, func() { v = newValidator() })

	type named struct {
		Name string `validate:"identifier"`
	}
	assert.NoError(t, v.Struct(named{Name: "alice_01"}))
	assert.Error(t, v.Struct(named{Name: "al ice"}))
	assert.Error(t, v.Struct(named{Name: "alice\x00"}))
}

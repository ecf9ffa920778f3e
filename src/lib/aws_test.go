package lib

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	out *secretsmanager.GetSecretValueOutput
	err error
	id  string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.id = aws.ToString(in.SecretId)
	return f.out, f.err
}

func TestGetSecretString(t *testing.T) {
	f := &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("abcd")}}
	s, err := GetSecretString(context.Background(), f, "ticketcore/qr")
	require.NoError(t, err)
	assert.Equal(t, "abcd", s)
	assert.Equal(t, "ticketcore/qr", f.id)

	f = &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{}}
	_, err = GetSecretString(context.Background(), f, "binary")
	assert.Error(t, err)

	f = &fakeSecrets{err: errors.New("AccessDenied")}
	_, err = GetSecretString(context.Background(), f, "denied")
	assert.Error(t, err)
}

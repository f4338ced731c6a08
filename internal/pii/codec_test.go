package pii

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type CodecSuite struct {
	suite.Suite
	codec *AEADCodec
	ctx   context.Context
}

func TestCodecSuite(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}

func (s *CodecSuite) SetupTest() {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	codec, err := NewAEADCodec(key)
	s.Require().NoError(err)
	s.codec = codec
	s.ctx = context.Background()
}

func (s *CodecSuite) TestRoundTrip() {
	enc, err := s.codec.Encrypt(s.ctx, "pb", []string{"1234567890", "Ram Kumar", ""})
	s.Require().NoError(err)
	s.True(strings.HasPrefix(enc[0], prefix))
	s.NotContains(enc[1], "Ram")
	s.Equal("", enc[2])

	dec, err := s.codec.Decrypt(s.ctx, "pb", enc)
	s.Require().NoError(err)
	s.Equal([]string{"1234567890", "Ram Kumar", ""}, dec)
}

func (s *CodecSuite) TestDeterministicPerTenant() {
	a, _ := s.codec.Encrypt(s.ctx, "pb", []string{"1234567890"})
	b, _ := s.codec.Encrypt(s.ctx, "pb", []string{"1234567890"})
	c, _ := s.codec.Encrypt(s.ctx, "pb.amritsar", []string{"1234567890"})
	s.Equal(a, b)
	s.NotEqual(a, c)
}

func (s *CodecSuite) TestEncryptIsIdempotent() {
	once, _ := s.codec.Encrypt(s.ctx, "pb", []string{"x"})
	twice, _ := s.codec.Encrypt(s.ctx, "pb", once)
	s.Equal(once, twice)
}

func (s *CodecSuite) TestDecrypt() {
	s.Run("plaintext passes through", func() {
		out, err := s.codec.Decrypt(s.ctx, "pb", []string{"legacy"})
		s.Require().NoError(err)
		s.Equal([]string{"legacy"}, out)
	})

	s.Run("wrong tenant fails authentication", func() {
		enc, _ := s.codec.Encrypt(s.ctx, "pb", []string{"secret"})
		_, err := s.codec.Decrypt(s.ctx, "other", enc)
		s.Error(err)
	})

	s.Run("garbage after prefix", func() {
		_, err := s.codec.Decrypt(s.ctx, "pb", []string{prefix + "!!"})
		s.Error(err)
	})
}

func (s *CodecSuite) TestShortKey() {
	_, err := NewAEADCodec(base64.StdEncoding.EncodeToString([]byte("short")))
	s.Error(err)
}

func (s *CodecSuite) TestPassthrough() {
	out, err := Passthrough{}.Encrypt(s.ctx, "pb", []string{"a"})
	s.Require().NoError(err)
	s.Equal([]string{"a"}, out)
}

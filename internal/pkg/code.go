package pkg

import (
	cryptoRand "crypto/rand"
	"io"
	"math/big"
	"strings"
)

const (
	// AccessCodeAlphabet 去掉了易混淆的 I O 0 1
	AccessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	AccessCodeLength   = 8
)

// AccessCodeGenerator 社区邀请码生成器，随机源由调用方注入
type AccessCodeGenerator struct {
	rand io.Reader
}

// NewAccessCodeGenerator r 为 nil 时使用 crypto/rand
func NewAccessCodeGenerator(r io.Reader) *AccessCodeGenerator {
	if r == nil {
		r = cryptoRand.Reader
	}
	return &AccessCodeGenerator{rand: r}
}

func (g *AccessCodeGenerator) Next() (string, error) {
	max := big.NewInt(int64(len(AccessCodeAlphabet)))
	var b strings.Builder
	for i := 0; i < AccessCodeLength; i++ {
		x, err := cryptoRand.Int(g.rand, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(AccessCodeAlphabet[x.Int64()])
	}
	return b.String(), nil
}

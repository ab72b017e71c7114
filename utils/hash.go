package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"Kindred/config"
)

// hash 化 phone 电话号码，日志里只出现哈希，盐 + “：” + phone

func HashPhone(phone string) string {
	key := config.Cfg.PhoneHashSalt

	sum := sha256.Sum256([]byte(key + ":" + phone))

	return hex.EncodeToString(sum[:])
}

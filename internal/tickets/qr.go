package tickets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/skip2/go-qrcode"
)

var errShortCiphertext = errors.New("ciphertext too short")

// Token is what a ticket QR code carries once decrypted.
type Token struct {
	SeatID    string `json:"seat_id"`
	BookingID string `json:"booking_id"`
}

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Codec{secret: hashed[:]}
}

func (c *Codec) Encrypt(t Token) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(c.secret)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func (c *Codec) Decrypt(code string) (*Token, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(code)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) <= aes.BlockSize {
		return nil, errShortCiphertext
	}
	block, err := aes.NewCipher(c.secret)
	if err != nil {
		return nil, err
	}

	data := make([]byte, len(ciphertext)-aes.BlockSize)
	stream := cipher.NewCFBDecrypter(block, ciphertext[:aes.BlockSize])
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t.SeatID == "" {
		return nil, errors.New("token has no seat id")
	}
	return &t, nil
}

// PNG renders the encrypted token as a 256px QR code.
func (c *Codec) PNG(t Token) ([]byte, error) {
	encrypted, err := c.Encrypt(t)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

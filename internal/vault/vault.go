// Package vault keeps session tokens encrypted at rest. Records are
// AES-256-CBC under a scrypt-derived key, serialized as
// "<iv hex>:<ciphertext hex>". Accounts are append-only; the newest row
// wins, there is no update path.
package vault

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"postpulse/internal/vault/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/scrypt"
)

var tracer = otel.Tracer("postpulse.vault")

// The salt is fixed rather than per-record: a random salt would orphan
// every token encrypted before it. Known weakness, kept deliberately.
const kdfSalt = "postpulse-vault"

var (
	ErrDecodeRecord = errors.New("malformed encrypted record")
	ErrNoAccount    = errors.New("no account connected")
)

type Vault struct {
	key []byte
	qry *db.Queries
}

func New(passphrase string, database *sql.DB) (*Vault, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("vault passphrase is empty")
	}
	key, err := scrypt.Key([]byte(passphrase), []byte(kdfSalt), 16384, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}
	return &Vault{
		key: key,
		qry: db.New(database),
	}, nil
}

// Encrypt seals a plaintext token into a storable record. A fresh IV is
// drawn per call, so encrypting the same token twice yields different
// records.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	_, err = io.ReadFull(rand.Reader, iv)
	if err != nil {
		return "", err
	}

	padded := padPkcs7([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens a record produced by Encrypt. Anything that does not
// have the exact two-part hex shape fails with ErrDecodeRecord; there is
// no attempt at repair.
func (v *Vault) Decrypt(record string) (string, error) {
	parts := strings.Split(record, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: expected iv:payload", ErrDecodeRecord)
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: iv is not hex", ErrDecodeRecord)
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: payload is not hex", ErrDecodeRecord)
	}
	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: iv length %d", ErrDecodeRecord, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: payload length %d", ErrDecodeRecord, len(ciphertext))
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", err
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := unpadPkcs7(plaintext, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeRecord, err)
	}
	return string(unpadded), nil
}

// Save inserts a new account row. Connecting the same account twice
// yields two rows; Latest decides which one matters.
func (v *Vault) Save(ctx context.Context, userID, record string) (int64, error) {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()

	id, err := v.qry.CreateAccount(ctx, db.CreateAccountParams{
		UserID:         userID,
		EncryptedToken: record,
		CreatedAt:      time.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert account")
		return 0, err
	}
	return id, nil
}

// Latest returns the most recently created account.
func (v *Vault) Latest(ctx context.Context) (db.Account, error) {
	account, err := v.qry.GetLatestAccount(ctx)
	if err == sql.ErrNoRows {
		return db.Account{}, ErrNoAccount
	}
	if err != nil {
		return db.Account{}, err
	}
	return account, nil
}

// LatestToken fetches the newest account and decrypts its session token.
func (v *Vault) LatestToken(ctx context.Context) (db.Account, string, error) {
	account, err := v.Latest(ctx)
	if err != nil {
		return db.Account{}, "", err
	}
	token, err := v.Decrypt(account.EncryptedToken)
	if err != nil {
		return db.Account{}, "", err
	}
	return account, token, nil
}

func padPkcs7(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpadPkcs7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, errors.New("invalid padding byte")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("inconsistent padding")
		}
	}
	return data[:len(data)-n], nil
}

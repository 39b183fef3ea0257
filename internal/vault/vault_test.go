package vault

import (
	"context"
	"database/sql"
	"testing"

	"postpulse/internal/vault/db"
	"postpulse/lib/telemetry"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setup(t testing.TB) (*Vault, *db.Queries, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:internal/vault")

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}

	v, err := New("correct horse battery staple", sqlite)
	if err != nil {
		t.Fatal(err)
	}
	return v, db.New(sqlite), cleanup
}

func TestEncryptRoundTrip(t *testing.T) {
	v, _, cleanup := setup(t)
	defer cleanup()

	for _, plaintext := range []string{
		"AQEDAbCdEfGh123456",
		"",
		"emoji ✨ and ünïcode 日本語",
		"short",
		"a string that is longer than a single aes block by a fair margin",
	} {
		record, err := v.Encrypt(plaintext)
		require.NoError(t, err)
		require.Regexp(t, `^[0-9a-f]{32}:[0-9a-f]+$`, record)

		decrypted, err := v.Decrypt(record)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted)
	}
}

func TestEncryptFreshIV(t *testing.T) {
	v, _, cleanup := setup(t)
	defer cleanup()

	a, err := v.Encrypt("same token")
	require.NoError(t, err)
	b, err := v.Encrypt("same token")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptRejectsMalformedRecords(t *testing.T) {
	v, _, cleanup := setup(t)
	defer cleanup()

	for _, record := range []string{
		"not-a-valid-record",
		"deadbeef",
		"",
		"zzzz:deadbeef",
		"deadbeef:zzzz",
		"a:b:c",
		// valid hex but iv is not a full block
		"dead:beef",
	} {
		_, err := v.Decrypt(record)
		require.ErrorIs(t, err, ErrDecodeRecord, "record %q", record)
	}
}

func TestLatestAccount(t *testing.T) {
	v, qry, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()

	_, err := v.Latest(ctx)
	require.ErrorIs(t, err, ErrNoAccount)

	_, err = qry.CreateAccount(ctx, db.CreateAccountParams{
		UserID:         "me",
		EncryptedToken: "old",
		CreatedAt:      1000,
	})
	require.NoError(t, err)
	_, err = qry.CreateAccount(ctx, db.CreateAccountParams{
		UserID:         "me",
		EncryptedToken: "new",
		CreatedAt:      2000,
	})
	require.NoError(t, err)

	account, err := v.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, "new", account.EncryptedToken)
}

func TestSaveAppendsAndLatestTokenDecrypts(t *testing.T) {
	v, _, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()

	first, err := v.Encrypt("token-one")
	require.NoError(t, err)
	second, err := v.Encrypt("token-two")
	require.NoError(t, err)

	id1, err := v.Save(ctx, "me", first)
	require.NoError(t, err)
	id2, err := v.Save(ctx, "me", second)
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	// same created_at second is possible here, the id breaks the tie
	account, token, err := v.LatestToken(ctx)
	require.NoError(t, err)
	require.Equal(t, id2, account.ID)
	require.Equal(t, "token-two", token)
}

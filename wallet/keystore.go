package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"

	"github.com/alexandrut83/alerimpool/blockchain"
)

const (
	scryptN     = 1 << 18
	scryptR     = 8
	scryptP     = 1
	scryptDklen = 32
)

// ErrIncorrectPassphrase is returned when the keystore MAC does not match.
var ErrIncorrectPassphrase = errors.New("incorrect passphrase")

// Keystore is a passphrase-encrypted secp256k1 key file.
type Keystore struct {
	Path string
	// ScryptN overrides the KDF cost; zero uses the default.
	ScryptN int
}

type keyStoreJSON struct {
	Address string     `json:"address"`
	Crypto  cryptoJSON `json:"crypto"`
}

type cryptoJSON struct {
	Ciphertext   string           `json:"ciphertext"`
	Cipher       string           `json:"cipher"`
	Cipherparams cipherParamsJSON `json:"cipherparams"`
	Mac          string           `json:"mac"`
	KdfParams    kdfParamsJSON    `json:"kdfparams"`
}

type cipherParamsJSON struct {
	Iv string `json:"iv"`
}

type kdfParamsJSON struct {
	Salt  string `json:"salt"`
	Dklen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
}

// Create generates a new key and stores it encrypted under passphrase.
func (ks *Keystore) Create(passphrase string) (*btcec.PrivateKey, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	if err := ks.save(key, passphrase); err != nil {
		return nil, err
	}
	return key, nil
}

// Import stores an existing hex encoded private key. A trailing 01
// compression flag is accepted.
func (ks *Keystore) Import(keyHex, passphrase string) (*btcec.PrivateKey, error) {
	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, errors.Wrap(err, "decode private key")
	}
	if len(raw) == 33 && raw[32] == 0x01 {
		raw = raw[:32]
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(raw))
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	if err := ks.save(key, passphrase); err != nil {
		return nil, err
	}
	return key, nil
}

// Unlock decrypts the stored key.
func (ks *Keystore) Unlock(passphrase string) (*btcec.PrivateKey, error) {
	ksJSON, err := ks.read()
	if err != nil {
		return nil, err
	}
	if len(passphrase) == 0 {
		return nil, errors.New("passphrase should not be empty")
	}
	cpt := ksJSON.Crypto
	if cpt.KdfParams.Dklen != scryptDklen {
		return nil, fmt.Errorf("unsupported kdf key length %d", cpt.KdfParams.Dklen)
	}
	salt, err := hex.DecodeString(cpt.KdfParams.Salt)
	if err != nil {
		return nil, err
	}
	derivedKey, err := scrypt.Key([]byte(passphrase), salt,
		cpt.KdfParams.N, cpt.KdfParams.R, cpt.KdfParams.P, cpt.KdfParams.Dklen)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(cpt.Ciphertext)
	if err != nil {
		return nil, err
	}
	mac, err := hex.DecodeString(cpt.Mac)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal(keystoreMAC(derivedKey[16:32], cipherText), mac) {
		return nil, ErrIncorrectPassphrase
	}
	iv, err := hex.DecodeString(cpt.Cipherparams.Iv)
	if err != nil {
		return nil, err
	}
	plain, err := aesCtr(derivedKey[:16], cipherText, iv)
	if err != nil {
		return nil, err
	}
	key, _ := btcec.PrivKeyFromBytes(plain)
	return key, nil
}

// Address returns the testnet address recorded in the keystore file
// without decrypting it.
func (ks *Keystore) Address() (string, error) {
	ksJSON, err := ks.read()
	if err != nil {
		return "", err
	}
	return ksJSON.Address, nil
}

func (ks *Keystore) save(key *btcec.PrivateKey, passphrase string) error {
	cpt, err := ks.newCryptoJSON(key, passphrase)
	if err != nil {
		return err
	}
	content, err := json.Marshal(&keyStoreJSON{
		Address: blockchain.AddressFromPublicKey(blockchain.AddressVersionTestnet, key.PubKey()),
		Crypto:  cpt,
	})
	if err != nil {
		return err
	}
	tmpPath, err := tryWriteTempFile(ks.Path, content)
	if err != nil {
		return err
	}
	return os.Rename(tmpPath, ks.Path)
}

func (ks *Keystore) read() (*keyStoreJSON, error) {
	content, err := os.ReadFile(ks.Path)
	if err != nil {
		return nil, err
	}
	var ksJSON keyStoreJSON
	if err := json.Unmarshal(content, &ksJSON); err != nil {
		return nil, errors.Wrapf(err, "parse keystore %s", ks.Path)
	}
	return &ksJSON, nil
}

func (ks *Keystore) newCryptoJSON(key *btcec.PrivateKey, passphrase string) (cryptoJSON, error) {
	if len(passphrase) == 0 {
		return cryptoJSON{}, errors.New("passphrase should not be empty")
	}
	n := ks.ScryptN
	if n == 0 {
		n = scryptN
	}
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return cryptoJSON{}, err
	}
	derivedKey, err := scrypt.Key([]byte(passphrase), salt, n, scryptR, scryptP, scryptDklen)
	if err != nil {
		return cryptoJSON{}, err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return cryptoJSON{}, err
	}
	cipherText, err := aesCtr(derivedKey[:16], key.Serialize(), iv)
	if err != nil {
		return cryptoJSON{}, err
	}
	return cryptoJSON{
		Ciphertext:   hex.EncodeToString(cipherText),
		Cipher:       "aes-128-ctr",
		Cipherparams: cipherParamsJSON{Iv: hex.EncodeToString(iv)},
		Mac:          hex.EncodeToString(keystoreMAC(derivedKey[16:32], cipherText)),
		KdfParams: kdfParamsJSON{
			Salt:  hex.EncodeToString(salt),
			Dklen: scryptDklen,
			N:     n,
			R:     scryptR,
			P:     scryptP,
		},
	}, nil
}

func keystoreMAC(macKey, cipherText []byte) []byte {
	h := sha256.New()
	h.Write(macKey)
	h.Write(cipherText)
	return h.Sum(nil)
}

func tryWriteTempFile(path string, content []byte) (string, error) {
	const dirPerm = 0700
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(filepath.Dir(path), fmt.Sprintf(".%s.tmp", filepath.Base(path)))
	if err != nil {
		return "", err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	f.Close()
	return f.Name(), nil
}

func aesCtr(key, text, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	output := make([]byte, len(text))
	cipher.NewCTR(block, iv).XORKeyStream(output, text)
	return output, nil
}

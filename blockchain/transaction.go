package blockchain

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/ripemd160"

	"github.com/alexandrut83/alerimpool/clarity"
)

// Transaction wire constants
const (
	AuthTypeStandard       byte = 0x04
	HashModeP2PKH          byte = 0x00
	PubKeyEncodingCompress byte = 0x00
	AnchorModeAny          byte = 0x03
	PostConditionAllow     byte = 0x01
	PostConditionDeny      byte = 0x02
	PayloadContractCall    byte = 0x02

	// SignatureSize is a recoverable signature: recovery id, r, s.
	SignatureSize = 65
)

// Hash160 returns ripemd160(sha256(data)).
func Hash160(data []byte) [20]byte {
	sum := sha256.Sum256(data)
	hasher := ripemd160.New()
	hasher.Write(sum[:])
	var out [20]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

// AddressFromPublicKey returns the single-sig address of a compressed
// public key for the given address version.
func AddressFromPublicKey(version byte, pub *btcec.PublicKey) string {
	hash := Hash160(pub.SerializeCompressed())
	return clarity.C32Address(version, hash[:])
}

// ContractCall is the payload of a contract-call transaction.
type ContractCall struct {
	ContractAddress string
	ContractName    string
	FunctionName    string
	Args            []clarity.Value
}

// Transaction is a single-sig contract-call transaction.
type Transaction struct {
	Version           byte
	ChainID           uint32
	Signer            [20]byte
	Nonce             uint64
	Fee               uint64
	Signature         [SignatureSize]byte
	AnchorMode        byte
	PostConditionMode byte
	Call              ContractCall
}

// NewTransaction creates an unsigned contract-call transaction for the
// configured tier.
func NewTransaction(params NetworkParams, pub *btcec.PublicKey, call ContractCall, nonce, fee uint64) *Transaction {
	return &Transaction{
		Version:           params.TxVersion,
		ChainID:           params.ChainID,
		Signer:            Hash160(pub.SerializeCompressed()),
		Nonce:             nonce,
		Fee:               fee,
		AnchorMode:        AnchorModeAny,
		PostConditionMode: PostConditionDeny,
		Call:              call,
	}
}

// Serialize encodes the transaction in wire format.
func (tx *Transaction) Serialize() ([]byte, error) {
	buf := bytes.NewBuffer(nil)

	buf.WriteByte(tx.Version)
	binary.Write(buf, binary.BigEndian, tx.ChainID)

	// Authorization
	buf.WriteByte(AuthTypeStandard)
	buf.WriteByte(HashModeP2PKH)
	buf.Write(tx.Signer[:])
	binary.Write(buf, binary.BigEndian, tx.Nonce)
	binary.Write(buf, binary.BigEndian, tx.Fee)
	buf.WriteByte(PubKeyEncodingCompress)
	buf.Write(tx.Signature[:])

	buf.WriteByte(tx.AnchorMode)
	buf.WriteByte(tx.PostConditionMode)
	binary.Write(buf, binary.BigEndian, uint32(0))

	// Payload
	version, hash, err := clarity.ParseC32Address(tx.Call.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("contract address: %v", err)
	}
	buf.WriteByte(PayloadContractCall)
	buf.WriteByte(version)
	buf.Write(hash[:])
	if err := writeName(buf, tx.Call.ContractName); err != nil {
		return nil, err
	}
	if err := writeName(buf, tx.Call.FunctionName); err != nil {
		return nil, err
	}
	binary.Write(buf, binary.BigEndian, uint32(len(tx.Call.Args)))
	for i, arg := range tx.Call.Args {
		encoded, err := clarity.Serialize(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %v", i, err)
		}
		buf.Write(encoded)
	}
	return buf.Bytes(), nil
}

func writeName(buf *bytes.Buffer, name string) error {
	if len(name) == 0 || len(name) > 128 {
		return fmt.Errorf("invalid name %q", name)
	}
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	return nil
}

// TxID is the sha512/256 digest of the serialized transaction.
func (tx *Transaction) TxID() (string, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return "", err
	}
	sum := sha512.Sum512_256(raw)
	return "0x" + hex.EncodeToString(sum[:]), nil
}

// presignHash commits to the transaction with nonce, fee and signature
// cleared, then to the real fee and nonce.
func (tx *Transaction) presignHash() ([32]byte, error) {
	cleared := *tx
	cleared.Nonce = 0
	cleared.Fee = 0
	cleared.Signature = [SignatureSize]byte{}
	raw, err := cleared.Serialize()
	if err != nil {
		return [32]byte{}, err
	}
	initial := sha512.Sum512_256(raw)

	buf := bytes.NewBuffer(initial[:])
	buf.WriteByte(AuthTypeStandard)
	binary.Write(buf, binary.BigEndian, tx.Fee)
	binary.Write(buf, binary.BigEndian, tx.Nonce)
	return sha512.Sum512_256(buf.Bytes()), nil
}

// Sign signs the transaction with the given private key.
func (tx *Transaction) Sign(privateKey *btcec.PrivateKey) error {
	if Hash160(privateKey.PubKey().SerializeCompressed()) != tx.Signer {
		return fmt.Errorf("private key does not match transaction signer")
	}
	hash, err := tx.presignHash()
	if err != nil {
		return err
	}
	compact, err := ecdsa.SignCompact(privateKey, hash[:], true)
	if err != nil {
		return err
	}
	// compact is [27+4+recid | r | s]
	tx.Signature[0] = compact[0] - 27 - 4
	copy(tx.Signature[1:], compact[1:])
	return nil
}

// Verify checks that the signature recovers to the transaction signer.
func (tx *Transaction) Verify() bool {
	hash, err := tx.presignHash()
	if err != nil {
		return false
	}
	compact := make([]byte, SignatureSize)
	compact[0] = tx.Signature[0] + 27 + 4
	copy(compact[1:], tx.Signature[1:])
	pub, compressed, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil || !compressed {
		return false
	}
	return Hash160(pub.SerializeCompressed()) == tx.Signer
}

package decoder

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/feral-file/ledger-indexer/internal/domain"
)

const publicKeyLength = 32

var errTrailingBytes = errors.New("trailing bytes after event payload")

// decodeMintEvent decodes the program's MintEvent layout:
// minter pubkey, mint pubkey, name, symbol, uri (u32 LE length + UTF-8), timestamp i64 LE
func decodeMintEvent(payload []byte) (*domain.DecodedEvent, error) {
	dec := bin.NewBorshDecoder(payload)

	minter, err := readPublicKey(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: minter: %v", domain.ErrDecodeFailure, err)
	}
	mint, err := readPublicKey(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: mint: %v", domain.ErrDecodeFailure, err)
	}
	name, err := readString(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: name: %v", domain.ErrDecodeFailure, err)
	}
	symbol, err := readString(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: symbol: %v", domain.ErrDecodeFailure, err)
	}
	uri, err := readString(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: uri: %v", domain.ErrDecodeFailure, err)
	}
	timestamp, err := dec.ReadInt64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", domain.ErrDecodeFailure, err)
	}
	if dec.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailure, errTrailingBytes)
	}

	return &domain.DecodedEvent{
		Kind: domain.EventKindMint,
		Mint: &domain.MintEvent{
			Minter:    minter,
			Mint:      mint,
			Name:      name,
			Symbol:    symbol,
			URI:       uri,
			Timestamp: time.Unix(timestamp, 0).UTC(),
		},
	}, nil
}

// decodeBuybackEvent decodes the program's BuybackEvent layout:
// amount_sol u64 LE, token_amount u64 LE, timestamp i64 LE
func decodeBuybackEvent(payload []byte) (*domain.DecodedEvent, error) {
	dec := bin.NewBorshDecoder(payload)

	amount, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: amount_sol: %v", domain.ErrDecodeFailure, err)
	}
	tokens, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: token_amount: %v", domain.ErrDecodeFailure, err)
	}
	timestamp, err := dec.ReadInt64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", domain.ErrDecodeFailure, err)
	}
	if dec.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailure, errTrailingBytes)
	}

	return &domain.DecodedEvent{
		Kind: domain.EventKindBuyback,
		Buyback: &domain.BuybackEvent{
			AmountLamports: amount,
			TokenAmount:    tokens,
			Timestamp:      time.Unix(timestamp, 0).UTC(),
		},
	}, nil
}

func readPublicKey(dec *bin.Decoder) (string, error) {
	b, err := dec.ReadNBytes(publicKeyLength)
	if err != nil {
		return "", err
	}
	return solana.PublicKeyFromBytes(b).String(), nil
}

func readString(dec *bin.Decoder) (string, error) {
	length, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return "", err
	}
	if int(length) > dec.Remaining() {
		return "", fmt.Errorf("string length %d exceeds remaining %d bytes", length, dec.Remaining())
	}
	b, err := dec.ReadNBytes(int(length))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("string is not valid UTF-8")
	}
	return string(b), nil
}

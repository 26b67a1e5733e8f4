package objectstream

import (
	"context"
	"fmt"

	"github.com/beanwire/beanwire/protocol"
)

// WriteTransaction writes a protocol.TransactionInfo per spec.md §6's
// transaction field layout: the type, then for remote/local types the
// xid fields, then (local only) the remaining-time seconds. The type is
// written as a 4-byte int32 through WriteInt32, not as a single byte.
func WriteTransaction(s Stream, tx protocol.TransactionInfo) error {
	switch tx.Type {
	case protocol.TxNone:
		return s.WriteInt32(int32(protocol.TxNone))
	case protocol.TxRemote, protocol.TxLocal:
		if err := s.WriteInt32(int32(tx.Type)); err != nil {
			return err
		}
		if err := s.WriteInt32(tx.Xid.FormatID); err != nil {
			return err
		}
		if err := s.WriteBytes(tx.Xid.GlobalID); err != nil {
			return err
		}
		if err := s.WriteBytes(tx.Xid.BranchQualifier); err != nil {
			return err
		}
		if tx.Type == protocol.TxLocal {
			return s.WriteInt32(tx.RemainingTimeSeconds)
		}
		return nil
	default:
		return fmt.Errorf("objectstream: unknown transaction type %d", tx.Type)
	}
}

// ReadTransaction reads a protocol.TransactionInfo written by WriteTransaction.
func ReadTransaction(s Stream) (protocol.TransactionInfo, error) {
	typeVal, err := s.ReadInt32()
	if err != nil {
		return protocol.TransactionInfo{}, err
	}
	tx := protocol.TransactionInfo{Type: protocol.TxType(typeVal)}
	switch tx.Type {
	case protocol.TxNone:
		return tx, nil
	case protocol.TxRemote, protocol.TxLocal:
		if tx.Xid.FormatID, err = s.ReadInt32(); err != nil {
			return protocol.TransactionInfo{}, err
		}
		if tx.Xid.GlobalID, err = s.ReadBytes(); err != nil {
			return protocol.TransactionInfo{}, err
		}
		if tx.Xid.BranchQualifier, err = s.ReadBytes(); err != nil {
			return protocol.TransactionInfo{}, err
		}
		if tx.Type == protocol.TxLocal {
			if tx.RemainingTimeSeconds, err = s.ReadInt32(); err != nil {
				return protocol.TransactionInfo{}, err
			}
		}
		return tx, nil
	default:
		return protocol.TransactionInfo{}, fmt.Errorf("objectstream: unknown transaction type byte %d", typeVal)
	}
}

// Attachments is the key/value map carried on bean-invoke request and
// response bodies.
type Attachments map[string]any

// WriteAttachments writes the attachment map using the packed-size
// framing spec.md §6 mandates: packedInteger(size) then size pairs when
// size>0, else a single zero byte. The size is written unconditionally,
// which also gives bean-invoke *responses* the always-present size they
// need even when zero (spec.md §6).
func WriteAttachments(ctx context.Context, s Stream, attachments Attachments) error {
	if err := s.WritePackedSize(len(attachments)); err != nil {
		return err
	}
	for k, v := range attachments {
		if err := s.WriteValue(ctx, k); err != nil {
			return fmt.Errorf("objectstream: write attachment key %q: %w", k, err)
		}
		if err := s.WriteValue(ctx, v); err != nil {
			return fmt.Errorf("objectstream: write attachment value for %q: %w", k, err)
		}
	}
	return nil
}

// ReadAttachments reads an attachment map written by WriteAttachments.
func ReadAttachments(ctx context.Context, s Stream) (Attachments, error) {
	size, err := s.ReadPackedSize()
	if err != nil {
		return nil, err
	}
	out := make(Attachments, size)
	for i := 0; i < size; i++ {
		keyVal, err := s.ReadValue(ctx)
		if err != nil {
			return nil, fmt.Errorf("objectstream: read attachment key %d: %w", i, err)
		}
		key, ok := keyVal.(string)
		if !ok {
			return nil, fmt.Errorf("objectstream: attachment key %d is not a string", i)
		}
		val, err := s.ReadValue(ctx)
		if err != nil {
			return nil, fmt.Errorf("objectstream: read attachment value for %q: %w", key, err)
		}
		out[key] = val
	}
	return out, nil
}

// WriteException writes a >=400 response's exception body (spec.md
// §4.5): a class name, sent as a single pre-shared token index when
// TokenTableV1 carries it, else spelled out in full, followed by the
// exception message.
func WriteException(s Stream, className, message string) error {
	if idx, ok := TokenIndex(className); ok {
		if err := s.WriteInt32(1); err != nil {
			return err
		}
		if err := s.WriteInt32(int32(idx)); err != nil {
			return err
		}
	} else {
		if err := s.WriteInt32(0); err != nil {
			return err
		}
		if err := s.WriteBytes([]byte(className)); err != nil {
			return err
		}
	}
	return s.WriteBytes([]byte(message))
}

// ReadException reads an exception body written by WriteException.
func ReadException(s Stream) (className, message string, err error) {
	tokenFlag, err := s.ReadInt32()
	if err != nil {
		return "", "", err
	}
	if tokenFlag == 1 {
		idx, err := s.ReadInt32()
		if err != nil {
			return "", "", err
		}
		tok, ok := TokenAt(byte(idx))
		if !ok {
			return "", "", fmt.Errorf("objectstream: unknown exception token index %d", idx)
		}
		className = tok
	} else {
		b, err := s.ReadBytes()
		if err != nil {
			return "", "", err
		}
		className = string(b)
	}
	msg, err := s.ReadBytes()
	if err != nil {
		return "", "", err
	}
	return className, string(msg), nil
}

// WriteModuleIDs writes a discovery response body: int32 size, then
// size module identifiers (spec.md §6).
func WriteModuleIDs(s Stream, ids []protocol.ModuleID) error {
	if err := s.WriteInt32(int32(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.WriteValue(context.Background(), id); err != nil {
			return fmt.Errorf("objectstream: write module id %v: %w", id, err)
		}
	}
	return nil
}

// ReadModuleIDs reads a discovery response body written by WriteModuleIDs.
func ReadModuleIDs(s Stream) ([]protocol.ModuleID, error) {
	n, err := s.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("objectstream: negative module id count %d", n)
	}
	ids := make([]protocol.ModuleID, 0, n)
	for i := int32(0); i < n; i++ {
		v, err := s.ReadValue(context.Background())
		if err != nil {
			return nil, fmt.Errorf("objectstream: read module id %d: %w", i, err)
		}
		id, ok := v.(protocol.ModuleID)
		if !ok {
			return nil, fmt.Errorf("objectstream: module id %d has unexpected type %T", i, v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

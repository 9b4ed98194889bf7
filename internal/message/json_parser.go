package message

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ParseSpreadStat decodes a single spread stat record.
// Schema violations are returned as ErrMissingField, anything else that
// fails to decode as ErrJSONUnmarshalFailed.
func ParseSpreadStat(data []byte) (SpreadStat, error) {
	var stat SpreadStat
	if err := json.Unmarshal(data, &stat); err != nil {
		return SpreadStat{}, wrapDecodeError(err)
	}
	return stat, nil
}

// ParseHistory reads a spread stat history snapshot. Both a JSON array and
// a stream of whitespace separated objects (JSON lines) are accepted.
func ParseHistory(r io.Reader) ([]SpreadStat, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return []SpreadStat{}, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var history []SpreadStat
		if err := dec.Decode(&history); err != nil {
			return nil, wrapDecodeError(err)
		}
		if history == nil {
			history = []SpreadStat{}
		}
		return history, nil
	}

	history := []SpreadStat{}
	for n := 1; ; n++ {
		var stat SpreadStat
		err := dec.Decode(&stat)
		if errors.Is(err, io.EOF) {
			return history, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n, wrapDecodeError(err))
		}
		history = append(history, stat)
	}
}

func wrapDecodeError(err error) error {
	if errors.Is(err, ErrMissingField) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}

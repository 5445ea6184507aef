package qlearn

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Encode writes one "<c1><c2><c3> <value>" line per non-zero cell.
func (t *Table) Encode(w io.Writer) error {
	writer := bufio.NewWriter(w)
	var werr error
	t.each(func(i, j, k int, v float64) {
		if werr != nil {
			return
		}
		line := t.trigramString(i, j, k) + " " + strconv.FormatFloat(v, 'g', -1, 64)
		if _, err := fmt.Fprintln(writer, line); err != nil {
			werr = err
		}
	})
	if werr != nil {
		return fmt.Errorf("failed to write model: %w", werr)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush model: %w", err)
	}
	return nil
}

// Decode reads lines written by Encode and returns how many cells were set.
// Short or unparsable lines and trigrams outside the alphabet are skipped.
func (t *Table) Decode(r io.Reader) (int, error) {
	loaded := 0
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return loaded, fmt.Errorf("failed to read model: %w", err)
		}
		if tri, v, ok := parseLine(strings.TrimRight(line, "\n")); ok {
			if i, j, k, known := t.alphabet.trigram(tri); known {
				t.Set(i, j, k, v)
				loaded++
			}
		}
		if err != nil {
			return loaded, nil
		}
	}
}

func parseLine(line string) ([3]rune, float64, bool) {
	line = strings.TrimRight(line, "\r")
	runes := []rune(line)
	if len(runes) < 5 || runes[3] != ' ' {
		return [3]rune{}, 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(runes[4:])), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return [3]rune{}, 0, false
	}
	return [3]rune{runes[0], runes[1], runes[2]}, v, true
}

// SaveFile replaces the file at path with the encoded table.
func (t *Table) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "model-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create temp model: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := t.Encode(tmpFile); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close model: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// LoadFile hydrates the table from path. A missing file is a cold start and
// reports false without error.
func (t *Table) LoadFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open model: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only model file.
			_ = cerr
		}
	}()
	loaded, err := t.Decode(file)
	if err != nil {
		return false, err
	}
	return loaded > 0, nil
}

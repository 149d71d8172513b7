package batch

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// ReadPatterns loads a pattern file. The format follows the extension:
// .yaml/.yml hold a "patterns:" list or a bare list, .zst is zstd-compressed
// text, anything else is plain text with one pattern per line and
// '#'-prefixed comment lines.
func ReadPatterns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return parseYAMLPatterns(data)
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream %s: %w", path, err)
		}
		defer dec.Close()
		return ParseText(dec)
	}
	return ParseText(f)
}

// ParseText reads one pattern per line. Blank lines and lines starting with
// '#' are skipped; other lines are kept verbatim, including spaces.
func ParseText(r io.Reader) ([]string, error) {
	var patterns []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read patterns: %w", err)
	}
	return patterns, nil
}

type patternFile struct {
	Patterns []string `yaml:"patterns"`
}

func parseYAMLPatterns(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pattern file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to decode pattern list: %w", err)
		}
		return list, nil
	case yaml.MappingNode:
		var pf patternFile
		if err := root.Decode(&pf); err != nil {
			return nil, fmt.Errorf("failed to decode patterns: %w", err)
		}
		return pf.Patterns, nil
	}
	return nil, fmt.Errorf("pattern file must be a list or contain a patterns list")
}

// CompressText writes patterns as zstd-compressed text, the format read back
// by ReadPatterns for .zst files.
func CompressText(w io.Writer, patterns []string) error {
	var buf bytes.Buffer
	for _, p := range patterns {
		buf.WriteString(p)
		buf.WriteByte('\n')
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := enc.Write(buf.Bytes()); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

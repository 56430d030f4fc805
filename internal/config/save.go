package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SaveFlag sets flags.<name> in the config file. Comments and formatting in
// other sections are preserved by editing the yaml.Node tree.
func SaveFlag(configPath, name string, enabled bool) error {
	return SaveValue(configPath, []string{"flags", name}, strconv.FormatBool(enabled))
}

// SaveFlags replaces the whole flags section with values, keys sorted.
func SaveFlags(configPath string, values map[string]bool) error {
	node := &yaml.Node{Kind: yaml.MappingNode}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(values[name])},
		)
	}
	return updateFile(configPath, []string{"flags"}, node)
}

// SaveValue sets the scalar at the dotted path keys, creating intermediate
// mappings as needed.
func SaveValue(configPath string, keys []string, value string) error {
	if len(keys) == 0 {
		return fmt.Errorf("no key given")
	}
	return updateFile(configPath, keys, scalarNode(value))
}

func scalarNode(value string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	if _, err := strconv.ParseBool(value); err == nil {
		n.Tag = "!!bool"
	}
	return n
}

// updateFile reads configPath, replaces the node at keys and writes the file
// back atomically.
func updateFile(configPath string, keys []string, value *yaml.Node) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("parsing config: top level is not a mapping")
	}

	if err := setPath(doc.Content[0], keys, value); err != nil {
		return err
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	return writeAtomic(configPath, buf.Bytes())
}

// setPath walks mapping nodes along keys and replaces or appends the last one.
func setPath(m *yaml.Node, keys []string, value *yaml.Node) error {
	for i, key := range keys {
		last := i == len(keys)-1

		var child *yaml.Node
		for j := 0; j < len(m.Content)-1; j += 2 {
			if m.Content[j].Value == key {
				child = m.Content[j+1]
				if last {
					m.Content[j+1] = value
				}
				break
			}
		}

		switch {
		case last && child != nil:
			return nil
		case last:
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
			return nil
		case child == nil:
			child = &yaml.Node{Kind: yaml.MappingNode}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, child)
		case child.Kind != yaml.MappingNode:
			return fmt.Errorf("config key %q is not a mapping", key)
		}
		m = child
	}
	return nil
}

// writeAtomic writes data to a temp file next to path, then renames it.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".waypoint.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

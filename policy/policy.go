// Package policy holds the credit policy catalog the sales agent consults.
package policy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NotFoundMessage is returned by Lookup when no topic matches.
const NotFoundMessage = "No se encontró información específica sobre esa consulta en las políticas de crédito. " +
	"Por favor, reformula tu pregunta o consulta sobre requisitos, montos, plazos, tasas o documentos."

// Topic is one entry of the catalog. Topic keys may contain several words;
// each word is matched on its own.
type Topic struct {
	Key  string `yaml:"key"`
	Text string `yaml:"text"`
}

// Catalog is an ordered list of policy topics.
type Catalog struct {
	Topics []Topic `yaml:"topics"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{Topics: []Topic{
		{Key: "requisitos", Text: "Para solicitar un crédito, el cliente debe tener: 1) Edad entre 18 y 70 años, 2) Ingresos mínimos de $5,000 mensuales, 3) Antigüedad laboral mínima de 6 meses, 4) Buen historial crediticio."},
		{Key: "montos", Text: "Los montos de crédito van desde $5,000 hasta $500,000, dependiendo del perfil del cliente."},
		{Key: "plazos", Text: "Los plazos disponibles son de 6, 12, 18, 24, 36, 48 y 60 meses."},
		{Key: "tasas", Text: "Las tasas de interés van desde el 12% hasta el 35% anual, dependiendo del perfil del cliente y el plazo del crédito."},
		{Key: "documentos", Text: "Documentos requeridos: 1) Identificación oficial, 2) Comprobante de domicilio, 3) Comprobante de ingresos, 4) Estados de cuenta bancarios de los últimos 3 meses."},
	}}
}

// LoadFile reads a YAML catalog. An empty path returns Default.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog and rejects empty or duplicate keys.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing policy catalog: %w", err)
	}
	if len(c.Topics) == 0 {
		return nil, fmt.Errorf("policy catalog has no topics")
	}
	seen := make(map[string]bool, len(c.Topics))
	for _, t := range c.Topics {
		key := strings.ToLower(strings.TrimSpace(t.Key))
		if key == "" {
			return nil, fmt.Errorf("policy topic with empty key")
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate policy topic %q", t.Key)
		}
		seen[key] = true
	}
	return &c, nil
}

// Lookup returns the text of every topic mentioned in query, in catalog
// order, separated by blank lines. Matching is a case-insensitive substring
// test on the key and on each of its words.
func (c *Catalog) Lookup(query string) string {
	q := strings.ToLower(query)
	var b strings.Builder
	for _, t := range c.Topics {
		if matches(q, strings.ToLower(t.Key)) {
			b.WriteString(t.Text)
			b.WriteString("\n\n")
		}
	}
	if b.Len() == 0 {
		return NotFoundMessage
	}
	return b.String()
}

func matches(query, key string) bool {
	if key == "" {
		return false
	}
	if strings.Contains(query, key) {
		return true
	}
	for _, word := range strings.Fields(key) {
		if strings.Contains(query, word) {
			return true
		}
	}
	return false
}

// Keys lists the topic keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.Topics))
	for i, t := range c.Topics {
		keys[i] = t.Key
	}
	return keys
}

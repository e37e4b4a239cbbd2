package translator

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/iho/gobooks/internal/domain"
)

// AccountMap names the account each translator posts to.
type AccountMap struct {
	Cash           string `yaml:"cash"`
	Receivables    string `yaml:"receivables"`
	Inventory      string `yaml:"inventory"`
	VATCredit      string `yaml:"vat_credit"`
	Equipment      string `yaml:"equipment"`
	Payables       string `yaml:"payables"`
	VATDebit       string `yaml:"vat_debit"`
	OpeningEquity  string `yaml:"opening_equity"`
	Sales          string `yaml:"sales"`
	InventoryGain  string `yaml:"inventory_gain"`
	CostOfSales    string `yaml:"cost_of_sales"`
	Materials      string `yaml:"materials"`
	InventoryLoss  string `yaml:"inventory_loss"`
	Services       string `yaml:"services"`
	GeneralExpense string `yaml:"general_expense"`
}

// MappingFile is the YAML document LoadMappingFile reads. Keywords extend
// the classifier rules per category.
type MappingFile struct {
	Accounts AccountMap            `yaml:"accounts"`
	Keywords map[Category][]string `yaml:"keywords"`
}

// DefaultAccountMap matches domain.DefaultChart.
func DefaultAccountMap() AccountMap {
	return AccountMap{
		Cash:           "1101",
		Receivables:    "1201",
		Inventory:      "1301",
		VATCredit:      "1401",
		Equipment:      "1501",
		Payables:       "2101",
		VATDebit:       "2105",
		OpeningEquity:  "3101",
		Sales:          "4101",
		InventoryGain:  "4201",
		CostOfSales:    "5101",
		Materials:      "5102",
		InventoryLoss:  "5201",
		Services:       "6101",
		GeneralExpense: "6201",
	}
}

// Validate checks every code has the account code format.
func (m AccountMap) Validate() error {
	v := reflect.ValueOf(m)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		code := v.Field(i).String()
		if err := domain.ValidateAccountCode(code); err != nil {
			return fmt.Errorf("account map %s: %w", t.Field(i).Tag.Get("yaml"), err)
		}
	}
	return nil
}

// merge fills the empty fields of m from def.
func (m AccountMap) merge(def AccountMap) AccountMap {
	v := reflect.ValueOf(&m).Elem()
	d := reflect.ValueOf(def)
	for i := 0; i < v.NumField(); i++ {
		if v.Field(i).String() == "" {
			v.Field(i).SetString(d.Field(i).String())
		}
	}
	return m
}

// ParseMappingFile decodes a mapping document. Accounts it leaves out keep
// their default codes.
func ParseMappingFile(data []byte) (*MappingFile, error) {
	var file MappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	file.Accounts = file.Accounts.merge(DefaultAccountMap())
	if err := file.Accounts.Validate(); err != nil {
		return nil, err
	}
	for category := range file.Keywords {
		if !category.IsValid() {
			return nil, fmt.Errorf("unknown keyword category %q", category)
		}
	}
	return &file, nil
}

// LoadMappingFile reads a mapping document from path.
func LoadMappingFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return ParseMappingFile(data)
}

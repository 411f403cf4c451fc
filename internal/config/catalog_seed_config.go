package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type SeedProduct struct {
	Name        string `yaml:"name"`
	Price       int64  `yaml:"price"` // 單位: 分
	Description string `yaml:"description"`
}

type SeedCategory struct {
	Name     string        `yaml:"name"`
	Products []SeedProduct `yaml:"products"`
}

type CatalogSeedConfig struct {
	Categories []SeedCategory `yaml:"categories"`
}

// LoadCatalogSeedConfig 開發用目錄資料
func LoadCatalogSeedConfig(path string) (*CatalogSeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &CatalogSeedConfig{}
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

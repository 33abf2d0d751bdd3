package config

import (
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Orders.Volumes) == 0 || len(cfg.Collection.TimeSlots) == 0 {
		t.Fatalf("default config missing catalogs: %+v", cfg)
	}
	if cfg.Points.PerLiter != 10 {
		t.Fatalf("per_liter = %d, want 10", cfg.Points.PerLiter)
	}
}

func TestFromYAMLRejectsBadPrice(t *testing.T) {
	yml := strings.Replace(GenerateDefault(), `price: "5"`, `price: "five"`, 1)
	if _, err := FromYAML([]byte(yml)); err == nil {
		t.Fatal("bad container price accepted")
	}
}

func TestFromYAMLRejectsMissingVolumes(t *testing.T) {
	yml := strings.Replace(GenerateDefault(), "volumes: [500L, 1000L, 2000L, 5000L]", "volumes: []", 1)
	if _, err := FromYAML([]byte(yml)); err == nil {
		t.Fatal("empty volume catalog accepted")
	}
}

func TestSectionsFallBackToDefaults(t *testing.T) {
	cfg := Default()
	cfg.Routes.Company = ""
	s := cfg.Sections()
	if s.Company != "/company" {
		t.Fatalf("company section = %q", s.Company)
	}
	if s.SignIn != "/sign-in" || s.CompanyRoot != "/company/dashboard" {
		t.Fatalf("sections = %+v", s)
	}
}

func TestContainerCatalogParsesPrices(t *testing.T) {
	catalog := Default().ContainerCatalog()
	if len(catalog) != 3 {
		t.Fatalf("catalog size = %d", len(catalog))
	}
	if catalog[0].Price.IsZero() {
		t.Fatalf("price not parsed: %+v", catalog[0])
	}
}

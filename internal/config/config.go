package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tadweer/internal/domain"
	"tadweer/internal/routing"
)

// Config models tadweer.yml.
type Config struct {
	Orders struct {
		Volumes []string `yaml:"volumes"`
	} `yaml:"orders"`
	Collection struct {
		ContainerSizes []string `yaml:"container_sizes"`
		TimeSlots      []string `yaml:"time_slots"`
	} `yaml:"collection"`
	Routes struct {
		SignIn        string `yaml:"sign_in"`
		RoleSelection string `yaml:"role_selection"`
		Customer      string `yaml:"customer"`
		CustomerRoot  string `yaml:"customer_root"`
		Company       string `yaml:"company"`
		CompanyRoot   string `yaml:"company_root"`
	} `yaml:"routes"`
	Points struct {
		PerLiter int `yaml:"per_liter"`
	} `yaml:"points"`
	Rewards    []RewardEntry    `yaml:"rewards"`
	Containers []ContainerEntry `yaml:"containers"`
	Drivers    []DriverEntry    `yaml:"drivers"`
	Leaderboard []LeaderboardSeed `yaml:"leaderboard"`
}

type RewardEntry struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	PointsCost  int    `yaml:"points_cost"`
	Description string `yaml:"description"`
}

type ContainerEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Size        string `yaml:"size"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
}

type DriverEntry struct {
	Name      string `yaml:"name"`
	Phone     string `yaml:"phone"`
	VehicleNo string `yaml:"vehicle_no"`
}

type LeaderboardSeed struct {
	Name           string `yaml:"name"`
	Points         int    `yaml:"points"`
	LitersRecycled int    `yaml:"liters_recycled"`
}

// Load reads and validates config from the workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run tadweer config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "tadweer.yml")
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultTemplate), &cfg); err != nil {
		panic(fmt.Sprintf("default config template invalid: %v", err))
	}
	return &cfg
}

// GenerateDefault returns the default config YAML for config init.
func GenerateDefault() string {
	return defaultTemplate
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if len(c.Orders.Volumes) == 0 {
		return fmt.Errorf("config.orders.volumes is required")
	}
	if len(c.Collection.ContainerSizes) == 0 {
		return fmt.Errorf("config.collection.container_sizes is required")
	}
	if len(c.Collection.TimeSlots) == 0 {
		return fmt.Errorf("config.collection.time_slots is required")
	}
	if c.Points.PerLiter <= 0 {
		return fmt.Errorf("config.points.per_liter must be positive")
	}
	for _, r := range c.Rewards {
		if r.ID == "" || r.Title == "" {
			return fmt.Errorf("reward entries need id and title")
		}
		if r.PointsCost <= 0 {
			return fmt.Errorf("reward %s has non-positive points_cost", r.ID)
		}
	}
	for _, ct := range c.Containers {
		if ct.ID == "" || ct.Name == "" {
			return fmt.Errorf("container entries need id and name")
		}
		if _, err := decimal.NewFromString(ct.Price); err != nil {
			return fmt.Errorf("container %s has invalid price %q: %w", ct.ID, ct.Price, err)
		}
	}
	return nil
}

// Sections maps the configured route roots onto the guard's sections,
// falling back to the defaults for anything unset.
func (c *Config) Sections() routing.Sections {
	s := routing.DefaultSections()
	if c.Routes.SignIn != "" {
		s.SignIn = c.Routes.SignIn
	}
	if c.Routes.RoleSelection != "" {
		s.RoleSelection = c.Routes.RoleSelection
	}
	if c.Routes.Customer != "" {
		s.Customer = c.Routes.Customer
	}
	if c.Routes.CustomerRoot != "" {
		s.CustomerRoot = c.Routes.CustomerRoot
	}
	if c.Routes.Company != "" {
		s.Company = c.Routes.Company
	}
	if c.Routes.CompanyRoot != "" {
		s.CompanyRoot = c.Routes.CompanyRoot
	}
	return s
}

// RewardCatalog converts the configured rewards to domain values.
func (c *Config) RewardCatalog() []domain.Reward {
	out := make([]domain.Reward, 0, len(c.Rewards))
	for _, r := range c.Rewards {
		out = append(out, domain.Reward{
			ID:          r.ID,
			Title:       r.Title,
			PointsCost:  r.PointsCost,
			Description: r.Description,
		})
	}
	return out
}

// ContainerCatalog converts the configured containers to domain values.
// Validate has already checked the prices parse.
func (c *Config) ContainerCatalog() []domain.Container {
	out := make([]domain.Container, 0, len(c.Containers))
	for _, ct := range c.Containers {
		price, _ := decimal.NewFromString(ct.Price)
		out = append(out, domain.Container{
			ID:          ct.ID,
			Name:        ct.Name,
			Size:        ct.Size,
			Price:       price,
			Description: ct.Description,
		})
	}
	return out
}

// LeaderboardSeeds converts the seeded leaderboard entries.
func (c *Config) LeaderboardSeeds() []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, 0, len(c.Leaderboard))
	for _, e := range c.Leaderboard {
		out = append(out, domain.LeaderboardEntry{Name: e.Name, Points: e.Points, LitersRecycled: e.LitersRecycled})
	}
	return out
}

// DriverPool converts the configured drivers for the delivery simulator.
func (c *Config) DriverPool() []domain.Driver {
	out := make([]domain.Driver, 0, len(c.Drivers))
	for _, d := range c.Drivers {
		out = append(out, domain.Driver{Name: d.Name, Phone: d.Phone, VehicleNo: d.VehicleNo})
	}
	return out
}

const defaultTemplate = `orders:
  volumes: [500L, 1000L, 2000L, 5000L]

collection:
  container_sizes: [5L, 10L, 20L]
  time_slots:
    - "09:00 - 11:00"
    - "11:00 - 13:00"
    - "14:00 - 16:00"
    - "16:00 - 18:00"

routes:
  sign_in: /sign-in
  role_selection: /role-selection
  customer: /dashboard
  customer_root: /dashboard
  company: /company
  company_root: /company/dashboard

points:
  per_liter: 10

rewards:
  - id: free-pickup
    title: Free priority pickup
    points_cost: 1000
    description: Skip the queue on your next collection
  - id: eco-kit
    title: Home recycling kit
    points_cost: 800
    description: Funnel, gloves and a 5L starter container
  - id: voucher-20
    title: 20 OMR partner voucher
    points_cost: 2000
    description: Redeemable at partner restaurants

containers:
  - id: standard-5l
    name: Standard Oil Container
    size: 5L
    price: "5"
    description: Household container with a sealed lid
  - id: premium-10l
    name: Premium Container
    size: 10L
    price: "8"
    description: Reinforced container with carry handles
  - id: pro-20l
    name: Professional Container
    size: 20L
    price: "15"
    description: Industrial-grade container for high volumes

drivers:
  - name: Ahmed Al-Habsi
    phone: "+968 9123 4567"
    vehicle_no: MCT-4821
  - name: Said Al-Farsi
    phone: "+968 9234 5678"
    vehicle_no: MCT-7730
  - name: Khalid Al-Amri
    phone: "+968 9345 6789"
    vehicle_no: SLL-1092

leaderboard:
  - name: Sara Al-Sayed
    points: 2500
    liters_recycled: 250
  - name: Fatima Al-Balushi
    points: 2200
    liters_recycled: 220
  - name: Mohammed Al-Rawahi
    points: 2000
    liters_recycled: 200
`

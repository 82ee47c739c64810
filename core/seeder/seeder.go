// Package seeder decides how many vehicles of each model start in each
// region, by sampling driver incomes from a lognormal distribution around the
// regional average and matching them against model prices.
package seeder

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/evfleet/chargesim/core/model"
)

// Config holds the statistical parameters of the seeding step.
type Config struct {
	// SalaryFluctuation is the relative spread of incomes around the regional
	// average (coefficient of variation).
	SalaryFluctuation float64 `json:"salary_fluctuation"`
	// PercentageWillingToSpend caps the affordable car price as a multiple of
	// the sampled monthly income.
	PercentageWillingToSpend float64 `json:"percentage_willing_to_spend"`
	// ProbabilityOfBuying is the chance a driver with at least one affordable
	// model actually owns a car.
	ProbabilityOfBuying float64 `json:"probability_of_buying"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.SalaryFluctuation == 0 {
		c.SalaryFluctuation = 0.4
	}
	if c.PercentageWillingToSpend == 0 {
		c.PercentageWillingToSpend = 30
	}
	if c.ProbabilityOfBuying == 0 {
		c.ProbabilityOfBuying = 0.8
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.SalaryFluctuation <= 0 {
		return fmt.Errorf("salary_fluctuation must be positive")
	}
	if c.PercentageWillingToSpend <= 0 {
		return fmt.Errorf("percentage_willing_to_spend must be positive")
	}
	if c.ProbabilityOfBuying < 0 || c.ProbabilityOfBuying > 1 {
		return fmt.Errorf("probability_of_buying must be in [0,1]")
	}
	return nil
}

// Seeder performs the fleet-seeding draw. It is consumed once at startup.
type Seeder struct {
	models []model.CarModel
	cfg    Config
	rng    *rand.Rand
}

// New creates a Seeder over the given car models.
func New(models []model.CarModel, cfg Config, rng *rand.Rand) *Seeder {
	return &Seeder{models: models, cfg: cfg, rng: rng}
}

// Run returns, for each region, the number of vehicles of each model seeded
// there: regionID -> carModelID -> count.
func (s *Seeder) Run(regions []model.RegionSpec) map[string]map[string]int {
	out := make(map[string]map[string]int, len(regions))
	for _, r := range regions {
		out[r.ID] = s.seedRegion(r)
	}
	return out
}

func (s *Seeder) seedRegion(r model.RegionSpec) map[string]int {
	counts := make(map[string]int, len(s.models))
	for _, m := range s.models {
		counts[m.ID] = 0
	}
	income := s.incomeDistribution(r.AvgIncome)
	for i := 0; i < r.AvgDrivers(); i++ {
		affordable := s.affordableModels(income.Rand())
		if len(affordable) == 0 {
			continue
		}
		if s.rng.Float64() >= s.cfg.ProbabilityOfBuying {
			continue
		}
		chosen := affordable[s.rng.IntN(len(affordable))]
		counts[chosen.ID]++
	}
	return counts
}

// incomeDistribution parametrizes a lognormal so that its mean equals the
// regional average income with the configured relative spread.
func (s *Seeder) incomeDistribution(avgIncome float64) distuv.LogNormal {
	sigma := math.Sqrt(math.Log(1 + s.cfg.SalaryFluctuation*s.cfg.SalaryFluctuation))
	mu := math.Log(avgIncome) - sigma*sigma/2
	return distuv.LogNormal{Mu: mu, Sigma: sigma, Src: s.rng}
}

func (s *Seeder) affordableModels(income float64) []model.CarModel {
	var out []model.CarModel
	for _, m := range s.models {
		if float64(m.Price) <= income*s.cfg.PercentageWillingToSpend {
			out = append(out, m)
		}
	}
	return out
}

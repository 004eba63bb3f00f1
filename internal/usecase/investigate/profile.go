package investigate

import (
	"errors"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/yoke233/sleuth/internal/errs"
)

const defaultInvestigatorTimeout = 1800

// investigatorProfile is the on-disk contract for the investigation
// executable, loaded from investigator.toml:
//
//	version = 1
//
//	[investigator]
//	program = "sleuth-investigate"
//	args = ["--post-comment"]
//	timeout_seconds = 1800
type investigatorProfile struct {
	Version      int                `toml:"version"`
	Investigator investigatorConfig `toml:"investigator"`
}

type investigatorConfig struct {
	Program        string   `toml:"program"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

func loadInvestigatorProfile(path string) (investigatorProfile, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = "investigator.toml"
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return investigatorProfile{}, errs.Wrapf(err, "read investigator profile %q", resolved)
	}

	var profile investigatorProfile
	if err := toml.Unmarshal(raw, &profile); err != nil {
		return investigatorProfile{}, errs.Wrapf(err, "parse investigator profile %q", resolved)
	}

	if strings.TrimSpace(profile.Investigator.Program) == "" {
		return investigatorProfile{}, errors.New("investigator.program is required")
	}
	if profile.Investigator.TimeoutSeconds <= 0 {
		profile.Investigator.TimeoutSeconds = defaultInvestigatorTimeout
	}
	return profile, nil
}

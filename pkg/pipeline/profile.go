package pipeline

import (
	"fmt"
	"strings"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

// Profile is a named enhancement aggressiveness level.
type Profile uint

const (
	ProfileUndefined = Profile(iota)
	ProfileLow
	ProfileMedium
	ProfileHigh
	ProfileMaximum
	ProfileExtreme
	endOfProfile
)

// Profiles returns all the defined profiles from the gentlest to the most
// aggressive one.
func Profiles() []Profile {
	result := make([]Profile, 0, int(endOfProfile)-1)
	for p := ProfileLow; p < endOfProfile; p++ {
		result = append(result, p)
	}
	return result
}

func (p Profile) String() string {
	switch p {
	case ProfileUndefined:
		return "undefined"
	case ProfileLow:
		return "low"
	case ProfileMedium:
		return "medium"
	case ProfileHigh:
		return "high"
	case ProfileMaximum:
		return "maximum"
	case ProfileExtreme:
		return "extreme"
	default:
		return fmt.Sprintf("unknown_profile_%d", uint(p))
	}
}

var profileAliases = map[string]Profile{
	"light":    ProfileLow,
	"advanced": ProfileMaximum,
}

// ParseProfile is the reverse of Profile.String; it also accepts the
// aliases "light" and "advanced".
func ParseProfile(s string) (Profile, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if p, ok := profileAliases[s]; ok {
		return p, nil
	}
	for _, p := range Profiles() {
		if p.String() == s {
			return p, nil
		}
	}
	return ProfileUndefined, audio.NewError(audio.KindConfiguration, "ParseProfile", fmt.Errorf("unknown profile %q", s))
}

// Set implements pflag.Value.
func (p *Profile) Set(s string) error {
	v, err := ParseProfile(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Type implements pflag.Value.
func (*Profile) Type() string {
	return "profile"
}

func (p Profile) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Profile) UnmarshalText(b []byte) error {
	return p.Set(string(b))
}

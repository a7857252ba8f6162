package registry

import (
	"context"
	"fmt"
	"io"

	"github.com/canonical/vnicdb/shared/logger"
	"github.com/canonical/vnicdb/shared/validate"
	"github.com/canonical/vnicdb/vnicdb/nic"
)

const ifnameChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateIfname assigns a host interface name to the named NIC and returns
// it. A NIC that already has one keeps it.
//
// Names look like "t<position>-<random>" and fit the kernel limit of 15
// characters.
func (r *Registry) GenerateIfname(ctx context.Context, name string) (string, error) {
	var ifname string
	err := r.update(ctx, func(ctx context.Context, l *nic.List) error {
		i, err := l.Index(name)
		if err != nil {
			return err
		}

		rec, _ := l.GetIndex(i)
		if rec.Ifname != "" {
			ifname = rec.Ifname
			return errUnchanged
		}

		taken := map[string]bool{}
		for _, other := range l.All() {
			taken[other.Ifname] = true
		}

		for range r.attempts {
			candidate, err := r.ifnameCandidate(i)
			if err != nil {
				return err
			}

			if taken[candidate] {
				continue
			}

			ifname = candidate
			rec.Ifname = candidate

			r.logger.Debug("Generated interface name", logger.Ctx{"nic": name, "ifname": candidate})
			return l.SetIndex(i, rec)
		}

		return fmt.Errorf("No free interface name for NIC %q after %d attempts", name, r.attempts)
	})
	if err != nil {
		return "", err
	}

	return ifname, nil
}

func (r *Registry) ifnameCandidate(index int) (string, error) {
	head := fmt.Sprintf("t%d-", index)

	size := 15 - len(head)
	if size > 6 {
		size = 6
	}

	if size < 1 {
		return "", fmt.Errorf("NIC position %d too large for an interface name", index)
	}

	buf := make([]byte, size)
	_, err := io.ReadFull(r.random, buf)
	if err != nil {
		return "", fmt.Errorf("Failed reading random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = ifnameChars[int(b)%len(ifnameChars)]
	}

	candidate := head + string(buf)

	err = validate.IsInterfaceName(candidate)
	if err != nil {
		return "", err
	}

	return candidate, nil
}

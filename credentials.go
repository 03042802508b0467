// Package sessions provides the delegated-credential model for the session
// cache.
package sessions

import (
	"fmt"
	"time"

	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
)

// Credentials is a snapshot of delegated STS credentials. Snapshots are
// immutable: a refresh replaces the cached value, it never mutates one, so a
// handle entry can keep a reference to the snapshot it was built from and
// judge its own staleness without re-deriving anything.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}

// credentialsFromSTS converts the SDK credential shape into a snapshot.
func credentialsFromSTS(c *ststypes.Credentials) *Credentials {
	return &Credentials{
		AccessKeyID:     *c.AccessKeyId,
		SecretAccessKey: *c.SecretAccessKey,
		SessionToken:    *c.SessionToken,
		Expiration:      *c.Expiration,
	}
}

// nearExpiry reports whether the snapshot is inside the refresh window:
// current time plus the skew has passed the expiration. Nil credentials
// belong to the default identity and never approach expiry.
func nearExpiry(c *Credentials, skew time.Duration) bool {
	if c == nil {
		return false
	}
	return time.Now().Add(skew).After(c.Expiration)
}

// expired reports strict expiry with no skew. Used only by CleanExpired:
// the gap between this and nearExpiry is what keeps in-flight construction
// safe from the sweeper.
func expired(c *Credentials) bool {
	if c == nil {
		return false
	}
	return time.Now().After(c.Expiration)
}

// roleARN formats the role to assume in the target account.
func (m *SessionManager) roleARN(account string) string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", account, m.roleName)
}

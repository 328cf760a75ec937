package rediscache

import (
	"testing"
)

func TestKeyNormalizesTopic(t *testing.T) {
	t.Parallel()

	c := &ItemCache{prefix: "ideascanner:items:"}
	if got := c.key(" r/SaaS "); got != "ideascanner:items:saas" {
		t.Fatalf("key = %q", got)
	}
}

func TestDecodeItemsRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := decodeItems([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

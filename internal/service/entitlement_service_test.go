package service

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"coursegate_backend/internal/config"
	"coursegate_backend/internal/model"
	"coursegate_backend/internal/util"
)

var testMappings = []config.ProductMapping{
	{Match: "video course", Slug: "video-course"},
	{Match: "bootcamp", Slug: "bootcamp"},
}

func TestHasAccessViaPurchase(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "alice", model.Member, false)
	env.mustCreatePurchase(t, user.ID, "evt-1", "The Video Course Deluxe")

	ok, err := env.entitlement.HasAccess(user.ID, "video-course")
	if err != nil {
		t.Fatalf("HasAccess: %v", err)
	}
	if !ok {
		t.Fatal("matching purchase should grant access")
	}

	ok, err = env.entitlement.HasAccess(user.ID, "bootcamp")
	if err != nil {
		t.Fatalf("HasAccess: %v", err)
	}
	if ok {
		t.Fatal("no purchase maps to bootcamp, access must be denied")
	}
}

func TestHasAccessShortCircuits(t *testing.T) {
	env := newTestEnv(t, testMappings)
	full := env.mustCreateUser(t, "bob", model.Member, true)
	admin := env.mustCreateUser(t, "carol", model.Admin, false)

	// No purchases exist; full access and admin role must still pass.
	for _, u := range []*model.User{full, admin} {
		ok, err := env.entitlement.HasAccess(u.ID, "video-course")
		if err != nil {
			t.Fatalf("HasAccess(%s): %v", u.Name, err)
		}
		if !ok {
			t.Fatalf("%s should bypass purchase checks", u.Name)
		}
	}
}

func TestHasAccessUnknownUser(t *testing.T) {
	env := newTestEnv(t, testMappings)

	_, err := env.entitlement.HasAccess(9999, "video-course")
	if !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown user, got %v", err)
	}
}

func TestEntitledSlugsSetSemantics(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "dave", model.Member, false)

	// Two purchases resolving to the same slug plus one to another.
	env.mustCreatePurchase(t, user.ID, "evt-1", "Video Course 2025")
	env.mustCreatePurchase(t, user.ID, "evt-2", "Video Course 2026 upgrade")
	env.mustCreatePurchase(t, user.ID, "evt-3", "Summer Bootcamp")
	// Unmapped product contributes nothing.
	env.mustCreatePurchase(t, user.ID, "evt-4", "Coaching Call")

	slugs, err := env.entitlement.EntitledSlugs(user.ID)
	if err != nil {
		t.Fatalf("EntitledSlugs: %v", err)
	}
	want := []string{"bootcamp", "video-course"}
	if !reflect.DeepEqual(slugs, want) {
		t.Fatalf("EntitledSlugs = %v, want %v", slugs, want)
	}
}

func TestRevokedPurchaseGrantsNothing(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "erin", model.Member, false)
	p := env.mustCreatePurchase(t, user.ID, "evt-1", "Video Course")

	if flipped, err := env.purchases.Revoke(p.ID); err != nil || !flipped {
		t.Fatalf("revoke: flipped=%v err=%v", flipped, err)
	}

	ok, err := env.entitlement.HasAccess(user.ID, "video-course")
	if err != nil {
		t.Fatalf("HasAccess: %v", err)
	}
	if ok {
		t.Fatal("revoked purchase must not grant access")
	}
}

func TestHasAccessFailsClosed(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "frank", model.Member, false)
	env.mustCreatePurchase(t, user.ID, "evt-1", "Video Course")

	// Break the purchase store out from under the resolver.
	if err := env.db.Migrator().DropTable(&model.Purchase{}); err != nil {
		t.Fatalf("drop purchases: %v", err)
	}

	_, err := env.entitlement.HasAccess(user.ID, "video-course")
	if !errors.Is(err, util.ErrUpstreamUnavailable) {
		t.Fatalf("want ErrUpstreamUnavailable on store failure, got %v", err)
	}

	// Full access still short-circuits before purchase I/O.
	full := env.mustCreateUser(t, "grace", model.Member, true)
	ok, err := env.entitlement.HasAccess(full.ID, "video-course")
	if err != nil || !ok {
		t.Fatalf("full access during outage: ok=%v err=%v", ok, err)
	}
}

// TestHasAccessMatchesOracle checks the access rule against a naive
// recomputation over randomized users and purchases: access iff full access,
// admin role, or some active purchase whose product maps to the slug.
func TestHasAccessMatchesOracle(t *testing.T) {
	env := newTestEnv(t, testMappings)
	rng := rand.New(rand.NewSource(1))

	products := []string{"Video Course", "Bootcamp 2026", "Coaching Call", "T-Shirt"}
	slugs := []string{"video-course", "bootcamp", "other-course"}

	type userCase struct {
		user     *model.User
		entitled map[string]bool
	}

	var cases []userCase
	for i := 0; i < 20; i++ {
		role := model.Member
		if rng.Intn(10) == 0 {
			role = model.Admin
		}
		u := env.mustCreateUser(t, fmt.Sprintf("user%d", i), role, rng.Intn(10) == 0)

		entitled := map[string]bool{}
		for j := 0; j < rng.Intn(4); j++ {
			product := products[rng.Intn(len(products))]
			p := env.mustCreatePurchase(t, u.ID, fmt.Sprintf("evt-%d-%d", i, j), product)
			active := true
			if rng.Intn(3) == 0 {
				if _, err := env.purchases.Revoke(p.ID); err != nil {
					t.Fatalf("revoke: %v", err)
				}
				active = false
			}
			if slug, ok := env.matcher.Resolve(product); ok && active {
				entitled[slug] = true
			}
		}
		cases = append(cases, userCase{user: u, entitled: entitled})
	}

	for _, tc := range cases {
		for _, slug := range slugs {
			want := tc.entitled[slug] || tc.user.FullAccess || tc.user.Role == model.Admin
			got, err := env.entitlement.HasAccess(tc.user.ID, slug)
			if err != nil {
				t.Fatalf("HasAccess(%d, %s): %v", tc.user.ID, slug, err)
			}
			if got != want {
				t.Errorf("HasAccess(%d, %s) = %v, want %v (fullAccess=%v role=%s purchases=%v)",
					tc.user.ID, slug, got, want, tc.user.FullAccess, tc.user.Role, tc.entitled)
			}
		}
	}
}

func TestEntitledUserIDsReverseScan(t *testing.T) {
	env := newTestEnv(t, testMappings)
	a := env.mustCreateUser(t, "a", model.Member, false)
	b := env.mustCreateUser(t, "b", model.Member, false)
	c := env.mustCreateUser(t, "c", model.Member, false)

	env.mustCreatePurchase(t, a.ID, "evt-1", "Video Course")
	env.mustCreatePurchase(t, b.ID, "evt-2", "Video Course Pro")
	pc := env.mustCreatePurchase(t, c.ID, "evt-3", "Video Course Basic")
	if _, err := env.purchases.Revoke(pc.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	ids, err := env.entitlement.EntitledUserIDs("video-course")
	if err != nil {
		t.Fatalf("EntitledUserIDs: %v", err)
	}
	want := []uint{a.ID, b.ID}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("EntitledUserIDs = %v, want %v", ids, want)
	}
}

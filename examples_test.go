package sessions

import (
	"context"
	"fmt"
)

// The examples run against the in-package mock issuer and factory so they
// stay deterministic and never touch AWS.

func ExampleSessionManager_GetClient() {
	ctx := context.Background()
	mgr, err := NewSessionManager(ctx, "deploy-role", "ci",
		WithSTSClient(&mockSTSAPI{}),
		WithSessionFactory(&fakeFactory{}),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	handle, err := mgr.GetClient(ctx, "s3",
		ForAccount("123456789012"),
		InRegion("eu-west-1"),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	h := handle.(*fakeHandle)
	fmt.Printf("%s %s in %s\n", h.kind, h.name, h.region)

	// A second fetch for the same key is a cache hit.
	again, _ := mgr.GetClient(ctx, "s3",
		ForAccount("123456789012"),
		InRegion("eu-west-1"),
	)
	fmt.Println("cache hit:", handle == again)

	// Output:
	// client s3 in eu-west-1
	// cache hit: true
}

func ExampleRegistry_Manager() {
	ctx := context.Background()
	reg := NewRegistry(
		WithSTSClient(&mockSTSAPI{}),
		WithSessionFactory(&fakeFactory{}),
	)

	audit, err := reg.Manager(ctx, "audit-role", "audit")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	same, _ := reg.Manager(ctx, "audit-role", "audit")
	other, _ := reg.Manager(ctx, "audit-role", "deploy")

	fmt.Println("memoized:", audit == same)
	fmt.Println("distinct identity:", audit != other)

	// Output:
	// memoized: true
	// distinct identity: true
}

func ExampleSessionManager_CleanExpired() {
	ctx := context.Background()
	mgr, err := NewSessionManager(ctx, "deploy-role", "ci",
		WithSTSClient(&mockSTSAPI{}),
		WithSessionFactory(&fakeFactory{}),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if _, err := mgr.GetClient(ctx, "s3", ForAccount("123456789012")); err != nil {
		fmt.Println("error:", err)
		return
	}

	// Call on a timer in real deployments; only strictly expired entries go.
	mgr.CleanExpired()

	fmt.Println("swept")

	// Output:
	// swept
}

func ExampleSessionManager_AvailableRegions() {
	ctx := context.Background()
	mgr, err := NewSessionManager(ctx, "deploy-role", "ci",
		WithSTSClient(&mockSTSAPI{}),
		WithSessionFactory(&fakeFactory{}),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	regions, err := mgr.AvailableRegions(ctx, "ec2")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(regions[0])

	// Output:
	// eu-west-1
}

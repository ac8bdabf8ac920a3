package warden_test

import (
	"context"
	"fmt"

	"github.com/aretw0/warden"
	"github.com/aretw0/warden/pkg/adapters/memory"
	"github.com/aretw0/warden/pkg/domain"
)

func Example() {
	ctx := context.Background()

	client, err := warden.New(
		warden.WithBaseURL("http://localhost:5000/api"),
		warden.WithStore(memory.NewStore()),
		warden.WithAuthListener(func(id *domain.Identity) {
			fmt.Println("identity changed:", id != nil)
		}),
	)
	if err != nil {
		panic(err)
	}
	if err := client.Start(ctx); err != nil {
		panic(err)
	}
	defer client.Close()

	// Nothing was persisted yet, so no request is needed to know we are logged out.
	fmt.Println("authenticated:", client.Session.IsAuthenticated())
	fmt.Println("token valid:", client.Session.EnsureValidToken(ctx))

	// Output:
	// authenticated: false
	// token valid: false
}

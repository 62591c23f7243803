package rpcloader

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/metacall/metacall-go/loader"
	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/registrycache"
	"github.com/metacall/metacall-go/scope"
	"github.com/metacall/metacall-go/value"
)

// Client is a loader.Impl that speaks the "rpc" tag: every load_from_*
// resolves to a Discover call against a remote MetaCall node, and every
// discovered function forwards Invoke calls back over the same
// connection. It embeds loader.UnsupportedImpl so ExecutionPath/Clear/
// LoadFromPackage fall back to ErrUnsupported, matching the backend's
// actual capabilities: a remote node, not a local filesystem.
type Client struct {
	loader.UnsupportedImpl

	conn  *grpc.ClientConn
	cache *registrycache.Manager
	ttl   time.Duration
}

// NewClient dials addr and wraps the connection as a loader.Impl. cache
// may be nil, in which case every Discover call hits the network.
func NewClient(addr string, cache *registrycache.Manager, ttl time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("rpcloader: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cache: cache, ttl: ttl}, nil
}

// Initialize is a no-op: the connection is already established in NewClient.
func (c *Client) Initialize(context.Context, []byte) error { return nil }

// Threading reports FreeThreaded: a gRPC connection may be called from
// any goroutine concurrently.
func (c *Client) Threading() loader.Threading { return loader.FreeThreaded }

// LoadFromFile treats paths[0] as the remote handle name to discover.
func (c *Client) LoadFromFile(ctx context.Context, paths []string) (any, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("rpcloader: LoadFromFile requires at least one remote handle name")
	}
	return paths[0], nil
}

// LoadFromMemory treats the given name directly as the remote handle name.
func (c *Client) LoadFromMemory(_ context.Context, name string, _ []byte) (any, error) {
	return name, nil
}

// Discover fetches handleName's introspection document from the remote
// node (through the cache, if configured) and defines a local
// reflect.Function for every function it lists.
func (c *Client) Discover(ctx context.Context, backendState any, into *scope.Context) error {
	handle, ok := backendState.(string)
	if !ok {
		return fmt.Errorf("rpcloader: Discover called with unexpected backend state %T", backendState)
	}

	doc, err := c.discoverCached(ctx, handle)
	if err != nil {
		return err
	}

	funcs, _ := doc["funcs"].([]any)
	for _, raw := range funcs {
		fn, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := fn["name"].(string)
		if name == "" {
			continue
		}
		async, _ := fn["async"].(bool)
		arity := 0
		if args, ok := fn["args"].([]any); ok {
			arity = len(args)
		}
		sig := reflect.NewSignature(arity)
		vtable := c.vtableFor(name)
		f := reflect.NewFunction(name, async, sig, nil, vtable)
		into.Root().Define(name, value.CreateEntity(f))
	}
	return nil
}

func (c *Client) discoverCached(ctx context.Context, handle string) (map[string]any, error) {
	key := registrycache.Key("rpc", handle)
	if c.cache != nil {
		if entry, err := c.cache.Get(ctx, key); err == nil && entry != nil {
			return decodeInspectDoc(entry.Inspect)
		}
	}
	doc, err := clientDiscover(ctx, c.conn, handle)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if raw, err := encodeInspectDoc(doc); err == nil {
			_ = c.cache.Save(ctx, &registrycache.Entry{Tag: "rpc", Name: handle, Inspect: raw})
		}
	}
	return doc, nil
}

func (c *Client) vtableFor(name string) *reflect.FunctionVTable {
	return &reflect.FunctionVTable{
		Invoke: func(_ any, args []*value.Value) (*value.Value, error) {
			jsonArgs := make([]any, len(args))
			for i, a := range args {
				jsonArgs[i] = nativeFromValue(a)
			}
			result, err := clientInvoke(context.Background(), c.conn, name, jsonArgs)
			if err != nil {
				return nil, err
			}
			return valueFromNative(result), nil
		},
	}
}

// Destroy closes the underlying connection.
func (c *Client) Destroy(context.Context) error {
	return c.conn.Close()
}

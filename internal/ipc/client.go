package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Jukebox.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Command sends a playback command.
func (c *Client) Command(name string, arg int) (*CommandResponse, error) {
	var resp CommandResponse
	if err := c.client.Call("Jukebox.Command", CommandRequest{Name: name, Arg: arg}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Catalog lists the albums the daemon scanned at startup.
func (c *Client) Catalog() (*CatalogResponse, error) {
	var resp CatalogResponse
	if err := c.client.Call("Jukebox.Catalog", CatalogRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns recent or most played tracks.
func (c *Client) History(req HistoryRequest) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Jukebox.History", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log events from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Jukebox.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Jukebox.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

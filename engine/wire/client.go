package wire

import (
	"errors"
	"fmt"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

// RoundTripper carries one request frame to an engine and returns its
// response frame. It returns an error only for transport failures; engine
// failures travel inside the Response.
type RoundTripper func(Request) (Response, error)

// Client implements engine.Engine by framing every call as a Request and
// sending it through a RoundTripper. It is safe for concurrent use when the
// RoundTripper is.
//
// Observers cannot be registered through a Client: a request/response
// transport has no way to push transaction notifications back.
type Client struct {
	rt RoundTripper
}

var _ engine.Engine = (*Client)(nil)

// NewClient returns a Client speaking through rt.
func NewClient(rt RoundTripper) (*Client, error) {
	if rt == nil {
		return nil, errors.New("roundtripper is nil")
	}
	return &Client{rt: rt}, nil
}

// call performs one round trip and unpacks a failing response into its
// error.
func (c *Client) call(req Request) (Response, error) {
	resp, err := c.rt(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s: %w", req.Op, err)
	}
	if !resp.OK {
		return Response{}, resp.Err()
	}
	return resp, nil
}

// Ping checks that the far side answers frames at all.
func (c *Client) Ping() error {
	_, err := c.call(Request{Op: OpPing})
	return err
}

// Open implements engine.Engine.
func (c *Client) Open(path string) (engine.StoreHandle, error) {
	resp, err := c.call(Request{Op: OpOpen, Path: path})
	if err != nil {
		return 0, err
	}
	return engine.StoreHandle(resp.Handle), nil
}

// CloseStore implements engine.Engine.
func (c *Client) CloseStore(store engine.StoreHandle) error {
	_, err := c.call(Request{Op: OpCloseStore, Store: uint64(store)})
	return err
}

// Transact implements engine.Engine.
func (c *Client) Transact(store engine.StoreHandle, tx string) (engine.TxReport, error) {
	resp, err := c.call(Request{Op: OpTransact, Store: uint64(store), Datalog: tx})
	if err != nil {
		return engine.TxReport{}, err
	}
	return engine.TxReport{TxID: resp.TxID, TxInstant: resp.TxInstant, TempIDs: resp.TempIDs}, nil
}

// EntidForAttribute implements engine.Engine.
func (c *Client) EntidForAttribute(store engine.StoreHandle, attr string) (int64, error) {
	resp, err := c.call(Request{Op: OpEntidForAttribute, Store: uint64(store), Attr: attr})
	if err != nil {
		return 0, err
	}
	return resp.Long, nil
}

// ValueForAttribute implements engine.Engine.
func (c *Client) ValueForAttribute(store engine.StoreHandle, entid int64, attr string) (engine.ValueHandle, bool, error) {
	resp, err := c.call(Request{Op: OpValueForAttribute, Store: uint64(store), Entid: entid, Attr: attr})
	if err != nil {
		return 0, false, err
	}
	return engine.ValueHandle(resp.Handle), resp.Present, nil
}

func (c *Client) set(req Request) error {
	_, err := c.call(req)
	return err
}

func (c *Client) SetLong(store engine.StoreHandle, entid int64, attr string, v int64) error {
	return c.set(Request{Op: OpSetLong, Store: uint64(store), Entid: entid, Attr: attr, Long: v})
}

func (c *Client) SetRef(store engine.StoreHandle, entid int64, attr string, ref int64) error {
	return c.set(Request{Op: OpSetRef, Store: uint64(store), Entid: entid, Attr: attr, Long: ref})
}

func (c *Client) SetRefKeyword(store engine.StoreHandle, entid int64, attr string, ident string) error {
	return c.set(Request{Op: OpSetRefKeyword, Store: uint64(store), Entid: entid, Attr: attr, Str: ident})
}

func (c *Client) SetKeyword(store engine.StoreHandle, entid int64, attr string, kw string) error {
	return c.set(Request{Op: OpSetKeyword, Store: uint64(store), Entid: entid, Attr: attr, Str: kw})
}

func (c *Client) SetBoolean(store engine.StoreHandle, entid int64, attr string, v bool) error {
	return c.set(Request{Op: OpSetBoolean, Store: uint64(store), Entid: entid, Attr: attr, Bool: v})
}

func (c *Client) SetDouble(store engine.StoreHandle, entid int64, attr string, v float64) error {
	return c.set(Request{Op: OpSetDouble, Store: uint64(store), Entid: entid, Attr: attr, Double: v})
}

func (c *Client) SetInstant(store engine.StoreHandle, entid int64, attr string, micros int64) error {
	return c.set(Request{Op: OpSetInstant, Store: uint64(store), Entid: entid, Attr: attr, Long: micros})
}

func (c *Client) SetString(store engine.StoreHandle, entid int64, attr string, v string) error {
	return c.set(Request{Op: OpSetString, Store: uint64(store), Entid: entid, Attr: attr, Str: v})
}

func (c *Client) SetUUID(store engine.StoreHandle, entid int64, attr string, v string) error {
	return c.set(Request{Op: OpSetUUID, Store: uint64(store), Entid: entid, Attr: attr, Str: v})
}

// RegisterObserver implements engine.Engine. It always fails: notifications
// cannot cross a request/response transport.
func (c *Client) RegisterObserver(store engine.StoreHandle, key string, attrs []int64, fn engine.ObserverFunc) error {
	return fmt.Errorf("%w: observers over a request/response transport", engine.ErrNotSupported)
}

// UnregisterObserver implements engine.Engine.
func (c *Client) UnregisterObserver(store engine.StoreHandle, key string) error {
	return fmt.Errorf("%w: observers over a request/response transport", engine.ErrNotSupported)
}

// Sync implements engine.Engine.
func (c *Client) Sync(store engine.StoreHandle, userUUID string, serverURI string) error {
	_, err := c.call(Request{Op: OpSync, Store: uint64(store), User: userUUID, Server: serverURI})
	return err
}

// BuildQuery implements engine.Engine.
func (c *Client) BuildQuery(store engine.StoreHandle, query string) (engine.QueryHandle, error) {
	resp, err := c.call(Request{Op: OpBuildQuery, Store: uint64(store), Datalog: query})
	if err != nil {
		return 0, err
	}
	return engine.QueryHandle(resp.Handle), nil
}

func (c *Client) bind(req Request) error {
	_, err := c.call(req)
	return err
}

func (c *Client) BindLong(q engine.QueryHandle, name string, v int64) error {
	return c.bind(Request{Op: OpBindLong, Query: uint64(q), Name: name, Long: v})
}

func (c *Client) BindRef(q engine.QueryHandle, name string, ref int64) error {
	return c.bind(Request{Op: OpBindRef, Query: uint64(q), Name: name, Long: ref})
}

func (c *Client) BindRefKeyword(q engine.QueryHandle, name string, ident string) error {
	return c.bind(Request{Op: OpBindRefKeyword, Query: uint64(q), Name: name, Str: ident})
}

func (c *Client) BindKeyword(q engine.QueryHandle, name string, kw string) error {
	return c.bind(Request{Op: OpBindKeyword, Query: uint64(q), Name: name, Str: kw})
}

func (c *Client) BindBoolean(q engine.QueryHandle, name string, v bool) error {
	return c.bind(Request{Op: OpBindBoolean, Query: uint64(q), Name: name, Bool: v})
}

func (c *Client) BindDouble(q engine.QueryHandle, name string, v float64) error {
	return c.bind(Request{Op: OpBindDouble, Query: uint64(q), Name: name, Double: v})
}

func (c *Client) BindInstant(q engine.QueryHandle, name string, micros int64) error {
	return c.bind(Request{Op: OpBindInstant, Query: uint64(q), Name: name, Long: micros})
}

func (c *Client) BindString(q engine.QueryHandle, name string, v string) error {
	return c.bind(Request{Op: OpBindString, Query: uint64(q), Name: name, Str: v})
}

func (c *Client) BindUUID(q engine.QueryHandle, name string, v string) error {
	return c.bind(Request{Op: OpBindUUID, Query: uint64(q), Name: name, Str: v})
}

// ExecuteScalar implements engine.Engine.
func (c *Client) ExecuteScalar(q engine.QueryHandle) (engine.ValueHandle, bool, error) {
	resp, err := c.call(Request{Op: OpExecuteScalar, Query: uint64(q)})
	if err != nil {
		return 0, false, err
	}
	return engine.ValueHandle(resp.Handle), resp.Present, nil
}

// ExecuteTuple implements engine.Engine.
func (c *Client) ExecuteTuple(q engine.QueryHandle) (engine.RowHandle, bool, error) {
	resp, err := c.call(Request{Op: OpExecuteTuple, Query: uint64(q)})
	if err != nil {
		return 0, false, err
	}
	return engine.RowHandle(resp.Handle), resp.Present, nil
}

// ExecuteList implements engine.Engine.
func (c *Client) ExecuteList(q engine.QueryHandle) (engine.ListHandle, error) {
	resp, err := c.call(Request{Op: OpExecuteList, Query: uint64(q)})
	if err != nil {
		return 0, err
	}
	return engine.ListHandle(resp.Handle), nil
}

// ExecuteRows implements engine.Engine.
func (c *Client) ExecuteRows(q engine.QueryHandle) (engine.RowsHandle, error) {
	resp, err := c.call(Request{Op: OpExecuteRows, Query: uint64(q)})
	if err != nil {
		return 0, err
	}
	return engine.RowsHandle(resp.Handle), nil
}

func (c *Client) DecodeLong(v engine.ValueHandle) (int64, error) {
	resp, err := c.call(Request{Op: OpDecodeLong, Value: uint64(v)})
	if err != nil {
		return 0, err
	}
	return resp.Long, nil
}

func (c *Client) DecodeRef(v engine.ValueHandle) (int64, error) {
	resp, err := c.call(Request{Op: OpDecodeRef, Value: uint64(v)})
	if err != nil {
		return 0, err
	}
	return resp.Long, nil
}

func (c *Client) DecodeKeyword(v engine.ValueHandle) (string, error) {
	resp, err := c.call(Request{Op: OpDecodeKeyword, Value: uint64(v)})
	if err != nil {
		return "", err
	}
	return resp.Str, nil
}

func (c *Client) DecodeBoolean(v engine.ValueHandle) (bool, error) {
	resp, err := c.call(Request{Op: OpDecodeBoolean, Value: uint64(v)})
	if err != nil {
		return false, err
	}
	return resp.Bool, nil
}

func (c *Client) DecodeDouble(v engine.ValueHandle) (float64, error) {
	resp, err := c.call(Request{Op: OpDecodeDouble, Value: uint64(v)})
	if err != nil {
		return 0, err
	}
	return resp.Double, nil
}

func (c *Client) DecodeInstant(v engine.ValueHandle) (int64, error) {
	resp, err := c.call(Request{Op: OpDecodeInstant, Value: uint64(v)})
	if err != nil {
		return 0, err
	}
	return resp.Long, nil
}

func (c *Client) DecodeString(v engine.ValueHandle) (string, error) {
	resp, err := c.call(Request{Op: OpDecodeString, Value: uint64(v)})
	if err != nil {
		return "", err
	}
	return resp.Str, nil
}

func (c *Client) DecodeUUID(v engine.ValueHandle) (string, error) {
	resp, err := c.call(Request{Op: OpDecodeUUID, Value: uint64(v)})
	if err != nil {
		return "", err
	}
	return resp.Str, nil
}

// ValueKind implements engine.Engine.
func (c *Client) ValueKind(v engine.ValueHandle) (sdk.ValueKind, error) {
	resp, err := c.call(Request{Op: OpValueKind, Value: uint64(v)})
	if err != nil {
		return sdk.KindInvalid, err
	}
	return sdk.KindFromString(resp.Str), nil
}

// RowValue implements engine.Engine.
func (c *Client) RowValue(r engine.RowHandle, i int) (engine.ValueHandle, error) {
	resp, err := c.call(Request{Op: OpRowValue, Row: uint64(r), Index: i})
	if err != nil {
		return 0, err
	}
	return engine.ValueHandle(resp.Handle), nil
}

// RowLen implements engine.Engine.
func (c *Client) RowLen(r engine.RowHandle) (int, error) {
	resp, err := c.call(Request{Op: OpRowLen, Row: uint64(r)})
	if err != nil {
		return 0, err
	}
	return resp.Len, nil
}

// ListValue implements engine.Engine.
func (c *Client) ListValue(l engine.ListHandle, i int) (engine.ValueHandle, error) {
	resp, err := c.call(Request{Op: OpListValue, List: uint64(l), Index: i})
	if err != nil {
		return 0, err
	}
	return engine.ValueHandle(resp.Handle), nil
}

// ListLen implements engine.Engine.
func (c *Client) ListLen(l engine.ListHandle) (int, error) {
	resp, err := c.call(Request{Op: OpListLen, List: uint64(l)})
	if err != nil {
		return 0, err
	}
	return resp.Len, nil
}

// RowsRow implements engine.Engine.
func (c *Client) RowsRow(r engine.RowsHandle, i int) (engine.RowHandle, error) {
	resp, err := c.call(Request{Op: OpRowsRow, Rows: uint64(r), Index: i})
	if err != nil {
		return 0, err
	}
	return engine.RowHandle(resp.Handle), nil
}

// RowsLen implements engine.Engine.
func (c *Client) RowsLen(r engine.RowsHandle) (int, error) {
	resp, err := c.call(Request{Op: OpRowsLen, Rows: uint64(r)})
	if err != nil {
		return 0, err
	}
	return resp.Len, nil
}

func (c *Client) ReleaseQuery(q engine.QueryHandle) error {
	_, err := c.call(Request{Op: OpReleaseQuery, Query: uint64(q)})
	return err
}

func (c *Client) ReleaseValue(v engine.ValueHandle) error {
	_, err := c.call(Request{Op: OpReleaseValue, Value: uint64(v)})
	return err
}

func (c *Client) ReleaseRow(r engine.RowHandle) error {
	_, err := c.call(Request{Op: OpReleaseRow, Row: uint64(r)})
	return err
}

func (c *Client) ReleaseList(l engine.ListHandle) error {
	_, err := c.call(Request{Op: OpReleaseList, List: uint64(l)})
	return err
}

func (c *Client) ReleaseRows(r engine.RowsHandle) error {
	_, err := c.call(Request{Op: OpReleaseRows, Rows: uint64(r)})
	return err
}

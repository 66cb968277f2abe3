package wire

import (
	"fmt"

	"github.com/loam-project/sdk/engine"
)

// Dispatch applies one request frame to a local engine and builds its
// response frame. It is the server half of the protocol: a transport reads
// a Request off the wire, calls Dispatch, and writes the Response back.
//
// The observer operations always answer not_supported; there is no frame a
// server could push a notification into.
func Dispatch(eng engine.Engine, req Request) Response {
	switch req.Op {
	case OpPing:
		return Response{OK: true}

	case OpOpen:
		h, err := eng.Open(req.Path)
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Handle: uint64(h)}

	case OpCloseStore:
		return status(eng.CloseStore(engine.StoreHandle(req.Store)))

	case OpTransact:
		rep, err := eng.Transact(engine.StoreHandle(req.Store), req.Datalog)
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, TxID: rep.TxID, TxInstant: rep.TxInstant, TempIDs: rep.TempIDs}

	case OpSync:
		return status(eng.Sync(engine.StoreHandle(req.Store), req.User, req.Server))

	case OpEntidForAttribute:
		entid, err := eng.EntidForAttribute(engine.StoreHandle(req.Store), req.Attr)
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Long: entid}

	case OpValueForAttribute:
		vh, ok, err := eng.ValueForAttribute(engine.StoreHandle(req.Store), req.Entid, req.Attr)
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Handle: uint64(vh), Present: ok}

	case OpSetLong:
		return status(eng.SetLong(engine.StoreHandle(req.Store), req.Entid, req.Attr, req.Long))
	case OpSetRef:
		return status(eng.SetRef(engine.StoreHandle(req.Store), req.Entid, req.Attr, req.Long))
	case OpSetRefKeyword:
		return status(eng.SetRefKeyword(engine.StoreHandle(req.Store), req.Entid, req.Attr, req.Str))
	case OpSetKeyword:
		return status(eng.SetKeyword(engine.StoreHandle(req.Store), req.Entid, req.Attr, req.Str))
	case OpSetBoolean:
		return status(eng.SetBoolean(engine.StoreHandle(req.Store), req.Entid, req.Attr, req.Bool))
	case OpSetDouble:
		return status(eng.SetDouble(engine.StoreHandle(req.Store), req.Entid, req.Attr, req.Double))
	case OpSetInstant:
		return status(eng.SetInstant(engine.StoreHandle(req.Store), req.Entid, req.Attr, req.Long))
	case OpSetString:
		return status(eng.SetString(engine.StoreHandle(req.Store), req.Entid, req.Attr, req.Str))
	case OpSetUUID:
		return status(eng.SetUUID(engine.StoreHandle(req.Store), req.Entid, req.Attr, req.Str))

	case OpRegisterObserver, OpUnregisterObserver:
		return Failure(fmt.Errorf("%w: observers over a request/response transport", engine.ErrNotSupported))

	case OpBuildQuery:
		qh, err := eng.BuildQuery(engine.StoreHandle(req.Store), req.Datalog)
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Handle: uint64(qh)}

	case OpBindLong:
		return status(eng.BindLong(engine.QueryHandle(req.Query), req.Name, req.Long))
	case OpBindRef:
		return status(eng.BindRef(engine.QueryHandle(req.Query), req.Name, req.Long))
	case OpBindRefKeyword:
		return status(eng.BindRefKeyword(engine.QueryHandle(req.Query), req.Name, req.Str))
	case OpBindKeyword:
		return status(eng.BindKeyword(engine.QueryHandle(req.Query), req.Name, req.Str))
	case OpBindBoolean:
		return status(eng.BindBoolean(engine.QueryHandle(req.Query), req.Name, req.Bool))
	case OpBindDouble:
		return status(eng.BindDouble(engine.QueryHandle(req.Query), req.Name, req.Double))
	case OpBindInstant:
		return status(eng.BindInstant(engine.QueryHandle(req.Query), req.Name, req.Long))
	case OpBindString:
		return status(eng.BindString(engine.QueryHandle(req.Query), req.Name, req.Str))
	case OpBindUUID:
		return status(eng.BindUUID(engine.QueryHandle(req.Query), req.Name, req.Str))

	case OpExecuteScalar:
		vh, ok, err := eng.ExecuteScalar(engine.QueryHandle(req.Query))
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Handle: uint64(vh), Present: ok}

	case OpExecuteTuple:
		rh, ok, err := eng.ExecuteTuple(engine.QueryHandle(req.Query))
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Handle: uint64(rh), Present: ok}

	case OpExecuteList:
		lh, err := eng.ExecuteList(engine.QueryHandle(req.Query))
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Handle: uint64(lh)}

	case OpExecuteRows:
		rh, err := eng.ExecuteRows(engine.QueryHandle(req.Query))
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Handle: uint64(rh)}

	case OpDecodeLong:
		return long(eng.DecodeLong(engine.ValueHandle(req.Value)))
	case OpDecodeRef:
		return long(eng.DecodeRef(engine.ValueHandle(req.Value)))
	case OpDecodeKeyword:
		return str(eng.DecodeKeyword(engine.ValueHandle(req.Value)))
	case OpDecodeBoolean:
		b, err := eng.DecodeBoolean(engine.ValueHandle(req.Value))
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Bool: b}
	case OpDecodeDouble:
		f, err := eng.DecodeDouble(engine.ValueHandle(req.Value))
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Double: f}
	case OpDecodeInstant:
		return long(eng.DecodeInstant(engine.ValueHandle(req.Value)))
	case OpDecodeString:
		return str(eng.DecodeString(engine.ValueHandle(req.Value)))
	case OpDecodeUUID:
		return str(eng.DecodeUUID(engine.ValueHandle(req.Value)))

	case OpValueKind:
		k, err := eng.ValueKind(engine.ValueHandle(req.Value))
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Str: k.String()}

	case OpRowValue:
		vh, err := eng.RowValue(engine.RowHandle(req.Row), req.Index)
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Handle: uint64(vh)}

	case OpRowLen:
		return length(eng.RowLen(engine.RowHandle(req.Row)))

	case OpListValue:
		vh, err := eng.ListValue(engine.ListHandle(req.List), req.Index)
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Handle: uint64(vh)}

	case OpListLen:
		return length(eng.ListLen(engine.ListHandle(req.List)))

	case OpRowsRow:
		rh, err := eng.RowsRow(engine.RowsHandle(req.Rows), req.Index)
		if err != nil {
			return Failure(err)
		}
		return Response{OK: true, Handle: uint64(rh)}

	case OpRowsLen:
		return length(eng.RowsLen(engine.RowsHandle(req.Rows)))

	case OpReleaseQuery:
		return status(eng.ReleaseQuery(engine.QueryHandle(req.Query)))
	case OpReleaseValue:
		return status(eng.ReleaseValue(engine.ValueHandle(req.Value)))
	case OpReleaseRow:
		return status(eng.ReleaseRow(engine.RowHandle(req.Row)))
	case OpReleaseList:
		return status(eng.ReleaseList(engine.ListHandle(req.List)))
	case OpReleaseRows:
		return status(eng.ReleaseRows(engine.RowsHandle(req.Rows)))

	default:
		return Response{Code: CodeFailure, Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

func status(err error) Response {
	if err != nil {
		return Failure(err)
	}
	return Response{OK: true}
}

func long(v int64, err error) Response {
	if err != nil {
		return Failure(err)
	}
	return Response{OK: true, Long: v}
}

func str(s string, err error) Response {
	if err != nil {
		return Failure(err)
	}
	return Response{OK: true, Str: s}
}

func length(n int, err error) Response {
	if err != nil {
		return Failure(err)
	}
	return Response{OK: true, Len: n}
}

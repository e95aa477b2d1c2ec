package store

import (
	"time"

	"github.com/stashkv/stash/lib/adapter"
)

// --------------------------------------------------------------------------
// Operation Kinds
// --------------------------------------------------------------------------

// opKind enumerates every request variant the store actor understands.
// The set is closed: the actor's dispatch switch matches it exhaustively.
type opKind int

const (
	opPut opKind = iota
	opPutNew
	opPutNewLazy
	opPutTTL
	opGet
	opGetDefault
	opGetStrict
	opHas
	opGetAndUpdate
	opGetAndUpdateStrict
	opPop
	opPopDefault
	opReplace
	opReplaceStrict
	opUpdate
	opUpdateStrict
	opDelete
	opDrop
	opTake
	opSplit
	opKeys
	opValues
	opPairs
	opBump
	opExpire
	opPersist
	opReap
	opInfo
)

func (k opKind) String() string {
	switch k {
	case opPut:
		return "Put"
	case opPutNew:
		return "PutNew"
	case opPutNewLazy:
		return "PutNewLazy"
	case opPutTTL:
		return "PutTTL"
	case opGet:
		return "Get"
	case opGetDefault:
		return "GetDefault"
	case opGetStrict:
		return "GetStrict"
	case opHas:
		return "Has"
	case opGetAndUpdate:
		return "GetAndUpdate"
	case opGetAndUpdateStrict:
		return "GetAndUpdateStrict"
	case opPop:
		return "Pop"
	case opPopDefault:
		return "PopDefault"
	case opReplace:
		return "Replace"
	case opReplaceStrict:
		return "ReplaceStrict"
	case opUpdate:
		return "Update"
	case opUpdateStrict:
		return "UpdateStrict"
	case opDelete:
		return "Delete"
	case opDrop:
		return "Drop"
	case opTake:
		return "Take"
	case opSplit:
		return "Split"
	case opKeys:
		return "Keys"
	case opValues:
		return "Values"
	case opPairs:
		return "Pairs"
	case opBump:
		return "Bump"
	case opExpire:
		return "Expire"
	case opPersist:
		return "Persist"
	case opReap:
		return "Reap"
	case opInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Request / Response
// --------------------------------------------------------------------------

// request represents one client call submitted to a store actor. Which
// fields are used depends on the operation kind. A request is immutable
// after creation and consumed exactly once by the actor loop.
type request struct {
	op opKind

	key    string
	keys   []string            // Drop, Take, Split
	value  []byte              // Put family, Replace, Update initial
	def    []byte              // GetDefault, PopDefault
	fn     UpdateFunc          // GetAndUpdate family
	apply  func([]byte) []byte // Update family
	thunk  func() []byte       // PutNewLazy
	amount int64               // Bump
	ttl    time.Duration       // PutTTL, PutNewTTL (via ttlSet), Expire
	ttlSet bool                // distinguishes PutNewTTL from plain PutNew

	// reply receives exactly one response. A nil reply channel marks a
	// fire-and-forget request (expiry reaps).
	reply chan response
}

// response is the single reply produced for a request.
type response struct {
	value  []byte
	loaded bool
	taken  map[string][]byte
	keys   []string
	values [][]byte
	pairs  []adapter.Pair
	status BumpStatus
	info   adapter.Info
	err    error
}

// respond delivers the response unless the request is fire-and-forget.
func (r *request) respond(resp response) {
	if r.reply != nil {
		r.reply <- resp
	}
}

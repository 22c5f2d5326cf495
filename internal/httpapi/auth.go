package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oddsware/betcore/internal/sigverify"
)

// SignedRequest is the JSON payload inside X-Signed-Message (fields sorted).
type SignedRequest struct {
	Action    string `json:"action"`
	ExpiresAt int64  `json:"expires_at"`
	Nonce     string `json:"nonce"`
}

// ActionSubmitBet is the signed action accepted on the submit route.
const ActionSubmitBet = "submit_bet"

const maxFutureWindow = 5 * time.Minute

// walletKey is the gin context key the middleware stores the proven
// caller address under.
const walletKey = "wallet_address"

// WalletAuth validates wallet signatures on a mutating route: the caller
// sends X-Wallet-Address, X-Signed-Message (base64 JSON SignedRequest) and
// X-Wallet-Signature (hex, personal-sign over the raw message bytes). The
// recovered signer must match the claimed address, the message must name
// the route's action and not be expired, and the nonce is single-use
// within its validity window. rdb nil keeps nonces in-process, which only
// holds on a single instance.
func WalletAuth(action string, rdb *redis.Client) gin.HandlerFunc {
	nonces := newNonceGuard(rdb)
	return func(c *gin.Context) {
		walletAddr := c.GetHeader("X-Wallet-Address")
		signedMsgB64 := c.GetHeader("X-Signed-Message")
		sigHex := c.GetHeader("X-Wallet-Signature")

		if walletAddr == "" || signedMsgB64 == "" || sigHex == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth headers"})
			return
		}

		msgBytes, err := base64.StdEncoding.DecodeString(signedMsgB64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid X-Signed-Message encoding"})
			return
		}

		var req SignedRequest
		if err := json.Unmarshal(msgBytes, &req); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signed message JSON"})
			return
		}

		if req.Action != action {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "signed action does not match route"})
			return
		}

		now := time.Now().Unix()
		if req.ExpiresAt <= now {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "request expired"})
			return
		}
		if req.ExpiresAt > now+int64(maxFutureWindow.Seconds()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "expires_at too far in future"})
			return
		}

		sig, err := hexutil.Decode(sigHex)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature hex"})
			return
		}

		recovered, err := sigverify.RecoverMessage(msgBytes, sig)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		if !strings.EqualFold(recovered.Hex(), walletAddr) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		ttl := time.Duration(req.ExpiresAt-now) * time.Second
		fresh, err := nonces.use(c.Request.Context(), req.Nonce, ttl)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "nonce already used"})
			return
		}

		c.Set(walletKey, recovered)
		c.Next()
	}
}

// callerAddress returns the address the auth middleware proved.
func callerAddress(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(walletKey)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}

// nonceGuard rejects auth-nonce reuse within the validity window, via
// redis SET NX when a client is available, an in-process map otherwise.
type nonceGuard struct {
	rdb *redis.Client

	mu   sync.Mutex
	seen map[string]time.Time
}

func newNonceGuard(rdb *redis.Client) *nonceGuard {
	return &nonceGuard{rdb: rdb, seen: make(map[string]time.Time)}
}

func (g *nonceGuard) use(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	if g.rdb != nil {
		return g.rdb.SetNX(ctx, "auth:nonce:"+nonce, 1, ttl).Result()
	}

	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	for n, exp := range g.seen {
		if now.After(exp) {
			delete(g.seen, n)
		}
	}
	if exp, ok := g.seen[nonce]; ok && now.Before(exp) {
		return false, nil
	}
	g.seen[nonce] = now.Add(ttl)
	return true, nil
}

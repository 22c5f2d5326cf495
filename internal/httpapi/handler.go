// Package httpapi exposes the settlement engine over HTTP. The wallet
// auth middleware proves the caller controls the address it claims; the
// engine performs the bet-level checks, and handlers only parse and map
// error kinds to status codes.
package httpapi

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oddsware/betcore/internal/bet"
	"github.com/oddsware/betcore/internal/engine"
)

type Handler struct {
	engine *engine.Engine
	log    *zap.Logger
}

func NewHandler(eng *engine.Engine, log *zap.Logger) *Handler {
	return &Handler{engine: eng, log: log}
}

// Register mounts the routes. auth guards the submit route: it must prove
// the caller controls the wallet it claims (see WalletAuth); claims and
// queries stay open by design.
func (h *Handler) Register(r gin.IRouter, auth gin.HandlerFunc) {
	r.POST("/bets", auth, h.submit)
	r.POST("/bets/claim", h.claim)
	r.GET("/bets/:subject", h.betsBySubject)
	r.GET("/results", h.result)
}

// betRequest carries the canonical 6-subject/6-param bet shape.
// Subjects: backer, layer, token, feeRecipient, league, resolver.
// Params (decimal strings): backerStake, backerFee, layerFee,
// expiration, fixture, odds. Payload is 0x-hex.
type betRequest struct {
	Subjects [6]string `json:"subjects" binding:"required"`
	Params   [6]string `json:"params" binding:"required"`
	Payload  string    `json:"payload"`
	Nonce    string    `json:"nonce" binding:"required"`
}

func (r *betRequest) decode() (bet.Bet, *big.Int, error) {
	var subjects [6]common.Address
	for i, s := range r.Subjects {
		if !common.IsHexAddress(s) {
			return bet.Bet{}, nil, fmt.Errorf("subjects[%d]: not an address", i)
		}
		subjects[i] = common.HexToAddress(s)
	}
	var params [6]*big.Int
	for i, p := range r.Params {
		v, err := parseUint256(p)
		if err != nil {
			return bet.Bet{}, nil, fmt.Errorf("params[%d]: %w", i, err)
		}
		params[i] = v
	}
	var payload []byte
	if r.Payload != "" {
		var err error
		payload, err = hexutil.Decode(r.Payload)
		if err != nil {
			return bet.Bet{}, nil, fmt.Errorf("payload: %w", err)
		}
	}
	nonce, err := parseUint256(r.Nonce)
	if err != nil {
		return bet.Bet{}, nil, fmt.Errorf("nonce: %w", err)
	}
	return bet.Encode(subjects, params, payload), nonce, nil
}

// parseUint256 parses a decimal string into the uint256 range the hash
// slots hold; anything wider would not fit a 32-byte slot.
func parseUint256(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer")
	}
	if v.Sign() < 0 || v.BitLen() > 256 {
		return nil, fmt.Errorf("out of uint256 range")
	}
	return v, nil
}

type submitRequest struct {
	betRequest
	Signature string `json:"signature" binding:"required"`
}

func (h *Handler) submit(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, nonce, err := req.decode()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature: " + err.Error()})
		return
	}

	hash, err := h.engine.Submit(c.Request.Context(), caller, b, nonce, sig)
	if err != nil {
		h.reject(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"hash": hash.Hex()})
}

func (h *Handler) claim(c *gin.Context) {
	var req betRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, nonce, err := req.decode()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, result, err := h.engine.Claim(c.Request.Context(), b, nonce)
	if err != nil {
		h.reject(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hash":   hash.Hex(),
		"result": uint8(result),
	})
}

func (h *Handler) betsBySubject(c *gin.Context) {
	subject := c.Param("subject")
	if !common.IsHexAddress(subject) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject is not an address"})
		return
	}
	hashes, err := h.engine.GetBetsBySubject(c.Request.Context(), common.HexToAddress(subject))
	if err != nil {
		h.reject(c, err)
		return
	}
	out := make([]string, len(hashes))
	for i, hash := range hashes {
		out[i] = hash.Hex()
	}
	c.JSON(http.StatusOK, gin.H{"hashes": out})
}

func (h *Handler) result(c *gin.Context) {
	league, resolverAddr := c.Query("league"), c.Query("resolver")
	if !common.IsHexAddress(league) || !common.IsHexAddress(resolverAddr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "league and resolver must be addresses"})
		return
	}
	fixture, ok := new(big.Int).SetString(c.Query("fixture"), 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fixture must be a decimal integer"})
		return
	}
	var payload []byte
	if raw := c.Query("payload"); raw != "" {
		var err error
		payload, err = hexutil.Decode(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payload: " + err.Error()})
			return
		}
	}

	result, err := h.engine.GetResult(c.Request.Context(),
		common.HexToAddress(league), common.HexToAddress(resolverAddr), fixture, payload)
	if err != nil {
		h.reject(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": uint8(result)})
}

// reject maps the engine's error taxonomy onto HTTP statuses.
func (h *Handler) reject(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch engine.Kind(err) {
	case "authentication":
		status = http.StatusUnauthorized
	case "authorization":
		status = http.StatusForbidden
	case "validation":
		status = http.StatusUnprocessableEntity
	case "settlement":
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.log.Error("internal error", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

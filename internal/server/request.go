package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const actorHeader = "X-Actor-ID"

// actorID resolves the acting administrator from the request. Every
// mutating route requires it so the audit trail always names a person.
func actorID(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.GetHeader(actorHeader))
	if raw == "" {
		return 0, newValidationError("actor_id", "missing_actor_id", "header "+actorHeader+" is required")
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError("actor_id", "invalid_actor_id", "header "+actorHeader+" must be a valid id")
	}
	return id, nil
}

func parseIDField(field, value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil {
		return 0, newValidationError(field, "invalid_"+field, "field "+field+" must be a valid id")
	}
	return id, nil
}

func schoolIDFromQuery(c *gin.Context) (snowflake.ID, error) {
	return parseIDField("school_id", c.Query("school_id"))
}

func schoolIDFromPath(c *gin.Context) (snowflake.ID, error) {
	return parseIDField("school_id", c.Param("id"))
}

// parseAmount reads a decimal string. An empty value yields zero; amounts
// are never carried across the wire as floats.
func parseAmount(field, value string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, newValidationError(field, "invalid_"+field, "field "+field+" must be a decimal string")
	}
	return amount, nil
}

func parseOptionalAmount(field string, value *string) (*decimal.Decimal, error) {
	if value == nil {
		return nil, nil
	}
	amount, err := parseAmount(field, *value)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}

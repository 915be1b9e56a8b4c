package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dukerupert/sutradhaar/internal/auth"
	"github.com/dukerupert/sutradhaar/internal/calc"
	"github.com/dukerupert/sutradhaar/internal/convert"
	"github.com/dukerupert/sutradhaar/internal/database"
	"github.com/dukerupert/sutradhaar/internal/store"
)

type CalcCmd struct {
	Expression []string `arg:"" help:"Expression, e.g. \"(2+3)*4\"."`
}

func (c *CalcCmd) Run(ctx *Context) error {
	v, err := calc.Evaluate(strings.Join(c.Expression, " "))
	if err != nil {
		return err
	}
	fmt.Println(calc.Format(v))
	return nil
}

type ConvertCmd struct {
	Category string `arg:"" help:"Category, e.g. length."`
	From     string `arg:"" help:"Source unit id."`
	To       string `arg:"" help:"Target unit id."`
	Value    string `arg:"" help:"Value to convert."`
}

func (c *ConvertCmd) Run(ctx *Context) error {
	value, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", c.Value)
	}
	v, err := convert.Convert(c.Category, c.From, c.To, value)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", calc.Format(v), unitSymbol(c.Category, c.To))
	return nil
}

func unitSymbol(category, id string) string {
	units, _ := convert.Units(category)
	for _, u := range units {
		if strings.EqualFold(u.ID, strings.TrimSpace(id)) {
			return u.Symbol
		}
	}
	return id
}

type PremiumCmd struct {
	Email  string `arg:"" help:"Account email."`
	Revoke bool   `help:"Revoke instead of grant."`
}

func (c *PremiumCmd) Run(ctx *Context) error {
	id := auth.User(c.Email)
	if !strings.Contains(id.Email, "@") {
		return fmt.Errorf("invalid email %q", c.Email)
	}

	db, err := database.Open(ctx.Config.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.NewSettingsStore(db).SetPremium(id.Owner(), !c.Revoke); err != nil {
		return err
	}
	ctx.Logger.Info("premium updated", "email", id.Email, "premium", !c.Revoke)
	return nil
}

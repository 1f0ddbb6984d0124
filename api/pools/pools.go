// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/gysr/ledger/api/utils"
	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/reverts"
	"github.com/gysr/ledger/rewards"
	"github.com/gysr/ledger/rewards/bonus"
)

// Registry resolves pools by name.
type Registry interface {
	Names() []string
	Pool(name string) (*rewards.Pool, bool)
}

type Pools struct {
	reg Registry
}

func New(reg Registry) *Pools {
	return &Pools{reg}
}

func (p *Pools) pool(req *http.Request) (*rewards.Pool, error) {
	name := mux.Vars(req)["name"]
	pool, ok := p.reg.Pool(name)
	if !ok {
		return nil, utils.NotFound(errors.Errorf("pool %q not found", name))
	}
	return pool, nil
}

func addressVar(req *http.Request, key string) (gysr.Address, error) {
	addr, err := gysr.ParseAddress(mux.Vars(req)[key])
	if err != nil {
		return gysr.Address{}, utils.BadRequest(errors.WithMessage(err, key))
	}
	return addr, nil
}

func (p *Pools) handleList(w http.ResponseWriter, _ *http.Request) error {
	names := p.reg.Names()
	if names == nil {
		names = []string{}
	}
	return utils.WriteJSON(w, names)
}

func (p *Pools) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	pool, err := p.pool(req)
	if err != nil {
		return err
	}
	cfg := pool.Config()
	out := &Pool{
		Name:          pool.Name(),
		Policy:        pool.Policy().Name(),
		Normalization: cfg.Normalization.String(),
		Usage:         amount(pool.Usage()),
		Staked:        amount(pool.TotalStakingShares()),
		Tokens:        []*Token{},
	}
	for _, addr := range pool.Tokens() {
		locked, err := pool.TotalLocked(addr)
		if err != nil {
			return err
		}
		unlocked, err := pool.TotalUnlocked(addr)
		if err != nil {
			return err
		}
		out.Tokens = append(out.Tokens, &Token{
			Address:     addr,
			Fundings:    pool.FundingCount(addr),
			Locked:      amount(locked),
			Unlocked:    amount(unlocked),
			Distributed: amount(pool.Distributed(addr)),
			Dust:        amount(pool.RewardDust(addr)),
		})
	}
	return utils.WriteJSON(w, out)
}

func (p *Pools) handleGetFundings(w http.ResponseWriter, req *http.Request) error {
	pool, err := p.pool(req)
	if err != nil {
		return err
	}
	token, err := addressVar(req, "token")
	if err != nil {
		return err
	}
	out := []*Funding{}
	for _, f := range pool.Fundings(token) {
		out = append(out, convertFunding(f))
	}
	return utils.WriteJSON(w, out)
}

func (p *Pools) handleGetStakes(w http.ResponseWriter, req *http.Request) error {
	pool, err := p.pool(req)
	if err != nil {
		return err
	}
	account, err := addressVar(req, "account")
	if err != nil {
		return err
	}
	out := []*Stake{}
	for _, s := range pool.Positions(account) {
		out = append(out, convertStake(s))
	}
	return utils.WriteJSON(w, out)
}

// handlePreview projects an unstake of ?shares=, optionally spending ?gysr=.
func (p *Pools) handlePreview(w http.ResponseWriter, req *http.Request) error {
	pool, err := p.pool(req)
	if err != nil {
		return err
	}
	account, err := addressVar(req, "account")
	if err != nil {
		return err
	}
	query := req.URL.Query()
	shares, err := fixed.Parse(query.Get("shares"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "shares"))
	}
	var payload []byte
	if g := query.Get("gysr"); g != "" {
		amount, err := fixed.Parse(g)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "gysr"))
		}
		payload = bonus.EncodeGysr(amount)
	}

	res, err := pool.Preview(account, shares, payload)
	if err != nil {
		if reverts.IsRevertErr(err) {
			return utils.BadRequest(err)
		}
		return err
	}
	return utils.WriteJSON(w, convertResult(res))
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handleList))
	sub.Path("/{name}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{name}/fundings/{token}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handleGetFundings))
	sub.Path("/{name}/stakes/{account}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handleGetStakes))
	sub.Path("/{name}/stakes/{account}/preview").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handlePreview))
}

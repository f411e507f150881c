/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package normalizer

import (
	"net"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/sql-instance-planner/api/v1alpha1"
)

// NetworkMode is the set of paths through which an instance is reachable.
type NetworkMode string

const (
	NetworkModePublic        NetworkMode = "public"
	NetworkModePrivate       NetworkMode = "private"
	NetworkModePublicPrivate NetworkMode = "public+private"
)

const openCIDR = "0.0.0.0/0"

// NetworkPlan is the resolved connectivity of one instance.
type NetworkPlan struct {
	Mode               NetworkMode                  `json:"mode"`
	IPv4Enabled        bool                         `json:"ipv4Enabled"`
	PrivateNetwork     string                       `json:"privateNetwork,omitempty"`
	AllocatedIPRange   string                       `json:"allocatedIpRange,omitempty"`
	SSLMode            v1alpha1.SSLMode             `json:"sslMode,omitempty"`
	AuthorizedNetworks []v1alpha1.AuthorizedNetwork `json:"authorizedNetworks,omitempty"`
}

// DeriveNetworkMode resolves the network mode. At least one of public IP or a
// private network must be present, otherwise the instance would be unreachable.
func DeriveNetworkMode(path *field.Path, publicIP bool, privateNetwork string) (NetworkMode, error) {
	if path == nil {
		path = field.NewPath("ipConfiguration")
	}

	switch {
	case publicIP && privateNetwork != "":
		return NetworkModePublicPrivate, nil
	case publicIP:
		return NetworkModePublic, nil
	case privateNetwork != "":
		return NetworkModePrivate, nil
	}
	return "", newError(path, ReasonMissingNetworkPath,
		"public IP is disabled and no private network is set")
}

// resolveNetwork overlays cfg on base. Fields omitted in cfg keep the base value.
func resolveNetwork(path *field.Path, cfg *v1alpha1.IPConfiguration, base NetworkPlan) (NetworkPlan, []error, []Warning) {
	out := base
	out.AuthorizedNetworks = append([]v1alpha1.AuthorizedNetwork(nil), base.AuthorizedNetworks...)

	if cfg != nil {
		if cfg.IPv4Enabled != nil {
			out.IPv4Enabled = *cfg.IPv4Enabled
		}
		if cfg.PrivateNetwork != "" {
			out.PrivateNetwork = cfg.PrivateNetwork
		}
		if cfg.AllocatedIPRange != "" {
			out.AllocatedIPRange = cfg.AllocatedIPRange
		}
		if cfg.SSLMode != "" {
			out.SSLMode = cfg.SSLMode
		}
		if cfg.AuthorizedNetworks != nil {
			out.AuthorizedNetworks = append([]v1alpha1.AuthorizedNetwork(nil), cfg.AuthorizedNetworks...)
		}
	}

	var errs []error
	var warnings []Warning

	mode, err := DeriveNetworkMode(path, out.IPv4Enabled, out.PrivateNetwork)
	if err != nil {
		errs = append(errs, err)
	}
	out.Mode = mode

	if !validSSLMode(out.SSLMode) {
		errs = append(errs, newError(path.Child("sslMode"), ReasonInvalid, "unknown SSL mode %q", out.SSLMode))
	}

	if out.AllocatedIPRange != "" && out.PrivateNetwork == "" {
		errs = append(errs, newError(path.Child("allocatedIpRange"), ReasonInvalid,
			"allocated IP range requires a private network"))
	}

	netPath := path.Child("authorizedNetworks")
	for i, n := range out.AuthorizedNetworks {
		if !validNetwork(n.Value) {
			errs = append(errs, newError(netPath.Index(i).Child("value"), ReasonInvalid,
				"%q is not a valid CIDR or IP address", n.Value))
			continue
		}
		if n.Value == openCIDR && out.IPv4Enabled {
			warnings = append(warnings, Warning{
				Field:   netPath.Index(i).String(),
				Message: "instance is reachable from any address",
			})
		}
	}

	if !out.IPv4Enabled && len(out.AuthorizedNetworks) > 0 {
		warnings = append(warnings, Warning{
			Field:   netPath.String(),
			Message: "authorized networks dropped because public IP is disabled",
		})
		out.AuthorizedNetworks = nil
	}

	return out, errs, warnings
}

func validNetwork(value string) bool {
	if _, _, err := net.ParseCIDR(value); err == nil {
		return true
	}
	return net.ParseIP(value) != nil
}

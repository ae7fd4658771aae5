package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type ClusterSpec struct {
	DataSourceURL     string `yaml:"ClusterDataSourceUrl" json:"clusterDataSourceUrl"`
	BasicAuthUsername string `yaml:"BasicAuthUsername" json:"basicAuthUsername"`
	BasicAuthPassword string `yaml:"BasicAuthPassword" json:"-"`
}

type Customer struct {
	Name     string
	Clusters []ClusterSpec
}

// CustomerMap keeps customers and their clusters in configuration order.
type CustomerMap []Customer

func (cm *CustomerMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: customers must be a mapping of customer names to cluster lists", value.Line)
	}
	customers := make(CustomerMap, 0, len(value.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valueNode := value.Content[i], value.Content[i+1]
		name := keyNode.Value
		if name == "" {
			return fmt.Errorf("line %d: customer name is empty", keyNode.Line)
		}
		if seen[name] {
			return fmt.Errorf("line %d: customer '%s' is defined more than once", keyNode.Line, name)
		}
		seen[name] = true

		var clusters []ClusterSpec
		if err := valueNode.Decode(&clusters); err != nil {
			return fmt.Errorf("customer '%s': %w", name, err)
		}
		customers = append(customers, Customer{Name: name, Clusters: clusters})
	}
	*cm = customers
	return nil
}

func (cm CustomerMap) ClusterCount() int {
	count := 0
	for _, customer := range cm {
		count += len(customer.Clusters)
	}
	return count
}

type sourcesDocument struct {
	Customers *CustomerMap `yaml:"Customers"`
	// key as written by viper for nested maps of a configuration file
	LowerCaseCustomers *CustomerMap `yaml:"customers"`
}

// ParseCustomers decodes the YAML document `{Customers: {<customer>: [<cluster>, ...]}}`.
func ParseCustomers(data string) (CustomerMap, error) {
	sources := &sourcesDocument{}
	if err := yaml.Unmarshal([]byte(data), sources); err != nil {
		return nil, err
	}
	if sources.Customers == nil {
		sources.Customers = sources.LowerCaseCustomers
	}
	if sources.Customers == nil {
		return nil, fmt.Errorf("key 'Customers' is missing")
	}
	for _, customer := range *sources.Customers {
		for idx, clusterSpec := range customer.Clusters {
			if clusterSpec.DataSourceURL == "" {
				return nil, fmt.Errorf("cluster #%d of customer '%s' has no ClusterDataSourceUrl", idx+1, customer.Name)
			}
		}
	}
	return *sources.Customers, nil
}

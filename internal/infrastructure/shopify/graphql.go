package shopify

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Admin API documents
const (
	ProductSearchQuery = `query ProductSearch($query: String!) {
  products(first: 5, query: $query) {
    edges {
      node {
        id
        title
        handle
        description
        onlineStoreUrl
        priceRangeV2 {
          minVariantPrice { amount currencyCode }
        }
        featuredImage { url altText }
      }
    }
  }
}`

	ShopPoliciesQuery = `query ShopPolicies {
  shop {
    shopPolicies {
      type
      title
      body
      url
    }
  }
}`

	StorefrontTokenCreateMutation = `mutation StorefrontAccessTokenCreate($input: StorefrontAccessTokenInput!) {
  storefrontAccessTokenCreate(input: $input) {
    storefrontAccessToken {
      accessToken
      title
    }
    userErrors {
      field
      message
    }
  }
}`
)

// Storefront API documents
const (
	CartQuery = `query Cart($id: ID!) {
  cart(id: $id) {
    id
    checkoutUrl
    totalQuantity
    cost {
      subtotalAmount { amount currencyCode }
    }
    lines(first: 20) {
      edges {
        node {
          quantity
          merchandise {
            ... on ProductVariant {
              title
              price { amount }
              product { title }
            }
          }
        }
      }
    }
  }
}`
)

// Customer Account API documents
const (
	CustomerQuery = `query Customer {
  customer {
    id
    firstName
    lastName
    emailAddress { emailAddress }
  }
}`
)

var operationNames = map[string]string{}

func init() {
	for name, doc := range map[string]string{
		"ProductSearchQuery":            ProductSearchQuery,
		"ShopPoliciesQuery":             ShopPoliciesQuery,
		"StorefrontTokenCreateMutation": StorefrontTokenCreateMutation,
		"CartQuery":                     CartQuery,
		"CustomerQuery":                 CustomerQuery,
	} {
		op, err := parseOperationName(doc)
		if err != nil {
			panic(fmt.Sprintf("invalid GraphQL document %s: %v", name, err))
		}
		operationNames[doc] = op
	}
}

// OperationName returns the name of the single operation in a document, or
// "graphql" when it cannot be determined.
func OperationName(query string) string {
	if name, ok := operationNames[query]; ok {
		return name
	}
	name, err := parseOperationName(query)
	if err != nil || name == "" {
		return "graphql"
	}
	return name
}

func parseOperationName(query string) (string, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: query})
	if err != nil {
		return "", err
	}
	if len(doc.Operations) != 1 {
		return "", fmt.Errorf("expected one operation, got %d", len(doc.Operations))
	}
	return doc.Operations[0].Name, nil
}

package service

import (
	"fmt"
	"strings"

	"pharma-stock/internal/domain"
)

// Detail texts are shown verbatim in the pharmacy's history view.

func addedDetails(name string, quantity int, expiry domain.Date) string {
	return fmt.Sprintf("Produit ajouté: %s (Qté: %d, Exp: %s)", name, quantity, expiry)
}

func mergedDetails(name string, previous, added int, expiry domain.Date) string {
	return fmt.Sprintf("Produit ajouté (fusion): %s (Qté précédent: %d, +%d) - Exp: %s", name, previous, added, expiry)
}

func modifiedDetails(before, after *domain.Product) string {
	var changes []string
	if before.Name != after.Name {
		changes = append(changes, fmt.Sprintf("Nom: %s → %s", before.Name, after.Name))
	}
	if before.Quantity != after.Quantity {
		changes = append(changes, fmt.Sprintf("Qté: %d → %d", before.Quantity, after.Quantity))
	}
	if before.ExpiryDate != after.ExpiryDate {
		changes = append(changes, fmt.Sprintf("Exp: %s → %s", before.ExpiryDate, after.ExpiryDate))
	}

	details := "Produit modifié: " + after.Name
	if len(changes) > 0 {
		details += " (" + strings.Join(changes, ", ") + ")"
	}
	return details
}

func deletedDetails(p *domain.Product) string {
	return fmt.Sprintf("Produit supprimé: %s (Qté: %d, Exp: %s)", p.Name, p.Quantity, p.ExpiryDate)
}

func stockOutDetails(p *domain.Product, quantity int, reason string, depleted bool) string {
	var b strings.Builder
	if depleted {
		fmt.Fprintf(&b, "Sortie de stock finale: %s (-%d) - STOCK ÉPUISÉ - Produit supprimé", p.Name, quantity)
	} else {
		fmt.Fprintf(&b, "Sortie de stock: %s (-%d)", p.Name, quantity)
	}
	if reason != "" {
		fmt.Fprintf(&b, " - Motif: %s", reason)
	}
	fmt.Fprintf(&b, " - Exp: %s", p.ExpiryDate)
	return b.String()
}

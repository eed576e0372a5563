package cache

// Key layout shared by the gateway and the tracking projector.

func OrderStatusKey(orderID string) string { return "order:" + orderID + ":status" }

func OrderLocationKey(orderID string) string { return "order:" + orderID + ":loc" }

func TransporterLocationKey(userID string) string { return "transporter:" + userID + ":loc" }
